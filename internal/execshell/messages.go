package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	currentDirectoryLabelConstant       = "current directory"
	unknownValueLabelConstant           = "unknown"
	unknownFailureMessageConstant       = "unknown error"
	standardErrorSuffixTemplateConstant = ": %s"
	exitCodeSuffixTemplateConstant      = " (exit code %d%s)"
	executionFailureTemplateConstant    = "%s: %s"

	gitRemoteSubcommandConstant        = "remote"
	gitPruneSubcommandConstant         = "prune"
	npmDistTagSubcommandConstant       = "dist-tag"
	npmDistTagListSubcommandConstant   = "ls"
	npmDistTagAltListConstant          = "list"
	npmDistTagRemoveSubcommandConstant = "rm"
	npmCleanInstallSubcommandConstant  = "ci"
	npmRunSubcommandConstant           = "run"
)

// messageTemplates holds the start, success, and failure phrasing of one kind of command. Failure templates receive
// the same arguments as the start template; the exit code suffix or failure reason is appended.
type messageTemplates struct {
	start   string
	success string
	failure string
}

var (
	genericTemplates       = messageTemplates{start: "Running %s", success: "Completed %s", failure: "%s failed"}
	remotePruneTemplates   = messageTemplates{start: "Pruning stale branches of remote %s in %s", success: "Pruned stale branches of remote %s in %s", failure: "Failed to prune stale branches of remote %s in %s"}
	distTagListTemplates   = messageTemplates{start: "Listing dist-tags of %s", success: "Listed dist-tags of %s", failure: "Failed to list dist-tags of %s"}
	distTagRemoveTemplates = messageTemplates{start: "Removing dist-tag %s from %s", success: "Removed dist-tag %s from %s", failure: "Failed to remove dist-tag %s from %s"}
	cleanInstallTemplates  = messageTemplates{start: "Installing dependencies in %s", success: "Installed dependencies in %s", failure: "Failed to install dependencies in %s"}
	runScriptTemplates     = messageTemplates{start: "Running npm script %s in %s", success: "npm script %s finished in %s", failure: "npm script %s failed in %s"}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a command that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a command that could not run.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	templates, arguments := formatter.describe(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, arguments...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, arguments...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, arguments...) + fmt.Sprintf(exitCodeSuffixTemplateConstant, result.ExitCode, formatStandardErrorSuffix(result.StandardError))
	default:
		failureMessage := unknownFailureMessageConstant
		if failure != nil {
			failureMessage = failure.Error()
		}
		return fmt.Sprintf(executionFailureTemplateConstant, fmt.Sprintf(templates.failure, arguments...), failureMessage)
	}
}

func (formatter CommandMessageFormatter) describe(command ShellCommand) (messageTemplates, []any) {
	arguments := command.Details.Arguments
	workingDirectory := describeWorkingDirectory(command)

	switch command.Name {
	case CommandGit:
		if argumentAt(arguments, 0) == gitRemoteSubcommandConstant && argumentAt(arguments, 1) == gitPruneSubcommandConstant {
			return remotePruneTemplates, []any{ensureValue(argumentAt(arguments, 2)), workingDirectory}
		}
	case CommandNpm:
		switch argumentAt(arguments, 0) {
		case npmDistTagSubcommandConstant:
			switch argumentAt(arguments, 1) {
			case npmDistTagListSubcommandConstant, npmDistTagAltListConstant:
				return distTagListTemplates, []any{ensureValue(argumentAt(arguments, 2))}
			case npmDistTagRemoveSubcommandConstant:
				return distTagRemoveTemplates, []any{ensureValue(argumentAt(arguments, 3)), ensureValue(argumentAt(arguments, 2))}
			}
		case npmCleanInstallSubcommandConstant:
			return cleanInstallTemplates, []any{workingDirectory}
		case npmRunSubcommandConstant:
			return runScriptTemplates, []any{ensureValue(argumentAt(arguments, 1)), workingDirectory}
		}
	}
	return genericTemplates, []any{command.String()}
}

func describeWorkingDirectory(command ShellCommand) string {
	trimmed := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmed) == 0 || trimmed == "." {
		return currentDirectoryLabelConstant
	}
	return trimmed
}

func formatStandardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func argumentAt(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return ""
	}
	return strings.TrimSpace(arguments[index])
}

func ensureValue(value string) string {
	if len(value) == 0 {
		return unknownValueLabelConstant
	}
	return value
}
