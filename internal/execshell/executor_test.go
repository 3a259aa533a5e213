package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/pipegate/internal/execshell"
)

const (
	testDistTagArgumentConstant     = "dist-tag"
	testWorkingDirectoryConstant    = "/workspace/project"
	testStandardErrorOutputConstant = "E404 not found"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type recordingObserver struct {
	started   int
	completed int
	failed    int
}

func (observer *recordingObserver) CommandStarted(execshell.ShellCommand) { observer.started++ }

func (observer *recordingObserver) CommandCompleted(execshell.ShellCommand, execshell.ExecutionResult) {
	observer.completed++
}

func (observer *recordingObserver) CommandExecutionFailed(execshell.ShellCommand, error) {
	observer.failed++
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		logger      *zap.Logger
		runner      execshell.CommandRunner
		expectError error
	}{
		{name: "logger_validation", runner: &recordingCommandRunner{}, expectError: execshell.ErrLoggerNotConfigured},
		{name: "runner_validation", logger: zap.NewNop(), expectError: execshell.ErrCommandRunnerNotConfigured},
		{name: "successful_initialization", logger: zap.NewNop(), runner: &recordingCommandRunner{}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectError != nil {
				require.ErrorIs(testInstance, creationError, testCase.expectError)
				require.Nil(testInstance, executor)
				return
			}
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, executor)
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name              string
		runnerResult      execshell.ExecutionResult
		runnerError       error
		expectErrorType   any
		expectedCompleted int
		expectedFailed    int
	}{
		{
			name:              "success",
			runnerResult:      execshell.ExecutionResult{StandardOutput: "latest: 1.2.3\n"},
			expectedCompleted: 1,
		},
		{
			name:              "failure_exit_code",
			runnerResult:      execshell.ExecutionResult{StandardError: testStandardErrorOutputConstant, ExitCode: 1},
			expectErrorType:   execshell.CommandFailedError{},
			expectedCompleted: 1,
		},
		{
			name:            "runner_error",
			runnerError:     errors.New("executable file not found"),
			expectErrorType: execshell.CommandExecutionError{},
			expectedFailed:  1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			eventObserver := &recordingObserver{}
			runner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}

			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), runner, execshell.WithCommandEventObserver(eventObserver))
			require.NoError(testInstance, creationError)

			details := execshell.CommandDetails{Arguments: []string{testDistTagArgumentConstant, "ls", "pkg"}, WorkingDirectory: testWorkingDirectoryConstant}
			result, executionError := executor.ExecuteNpm(context.Background(), details)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, result.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, result.StandardOutput)
			}

			require.Len(testInstance, observerLogs.All(), 2)
			require.Equal(testInstance, 1, eventObserver.started)
			require.Equal(testInstance, testCase.expectedCompleted, eventObserver.completed)
			require.Equal(testInstance, testCase.expectedFailed, eventObserver.failed)
		})
	}
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	runner := &recordingCommandRunner{}
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner)
	require.NoError(testInstance, creationError)

	_, gitError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{"remote", "prune", "origin"}})
	require.NoError(testInstance, gitError)
	_, npmError := executor.ExecuteNpm(context.Background(), execshell.CommandDetails{Arguments: []string{"ci"}})
	require.NoError(testInstance, npmError)

	require.Len(testInstance, runner.recordedCommands, 2)
	require.Equal(testInstance, execshell.CommandGit, runner.recordedCommands[0].Name)
	require.Equal(testInstance, execshell.CommandNpm, runner.recordedCommands[1].Name)
}

func TestCommandFailedErrorMessage(testInstance *testing.T) {
	failure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandNpm, Details: execshell.CommandDetails{Arguments: []string{"dist-tag", "rm", "pkg", "canary"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: " " + testStandardErrorOutputConstant + "\n"},
	}
	require.Equal(testInstance, "npm dist-tag rm pkg canary exited with code 1: E404 not found", failure.Error())
}

func TestCommandExecutionErrorUnwraps(testInstance *testing.T) {
	cause := errors.New("boom")
	failure := execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGit}, Cause: cause}
	require.ErrorIs(testInstance, failure, cause)
}
