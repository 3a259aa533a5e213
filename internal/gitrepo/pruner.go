package gitrepo

import (
	"context"

	"github.com/temirov/pipegate/internal/execshell"
)

const (
	remoteSubcommandConstant = "remote"
	pruneSubcommandConstant  = "prune"
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RemotePruner drops remote-tracking refs whose branches were deleted upstream.
type RemotePruner struct {
	executor         GitExecutor
	workingDirectory string
}

// NewRemotePruner constructs a RemotePruner operating in workingDirectory.
func NewRemotePruner(executor GitExecutor, workingDirectory string) *RemotePruner {
	return &RemotePruner{executor: executor, workingDirectory: workingDirectory}
}

// PruneRemote runs `git remote prune <remote>`.
func (pruner *RemotePruner) PruneRemote(executionContext context.Context, remote string) error {
	_, executionError := pruner.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, pruneSubcommandConstant, remote},
		WorkingDirectory: pruner.workingDirectory,
	})
	return executionError
}
