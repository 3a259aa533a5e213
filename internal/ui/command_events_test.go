package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/pipegate/internal/execshell"
	"github.com/temirov/pipegate/internal/ui"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Name:    execshell.CommandNpm,
		Details: execshell.CommandDetails{Arguments: []string{"run", "build-dist"}, WorkingDirectory: "/tmp/project"},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name:            "command_started",
			invoke:          func(logger *ui.ConsoleCommandEventLogger) { logger.CommandStarted(command) },
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "Running npm script build-dist in /tmp/project",
		},
		{
			name: "command_completed_success",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: "npm script build-dist finished in /tmp/project",
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 2, StandardError: "tsc error"})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: "npm script build-dist failed in /tmp/project (exit code 2: tsc error)",
		},
		{
			name: "command_execution_failed",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(command, errors.New("npm missing"))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: "npm script build-dist failed in /tmp/project: npm missing",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			testCase.invoke(ui.NewConsoleCommandEventLogger(zap.New(observerCore)))

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}
