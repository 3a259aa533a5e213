package disttags

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/credentials"
	"github.com/temirov/pipegate/internal/execshell"
	"github.com/temirov/pipegate/internal/gitrepo"
	"github.com/temirov/pipegate/internal/npm"
	"github.com/temirov/pipegate/internal/ui"
)

const missingTokenTemplateConstant = "%w: %v"

// ServiceResolver builds cleanup services for the command.
type ServiceResolver interface {
	Resolve(logger *zap.Logger, collectConfiguration collect.Configuration, configuration Configuration) (*Service, error)
}

// DefaultServiceResolver wires the metadata collector, git in the repository directory, the npm CLI and the
// .npmrc writer.
type DefaultServiceResolver struct {
	CollectorResolver collect.CollectorResolver
	CommandRunner     execshell.CommandRunner
	EnvironmentLookup credentials.EnvironmentLookup
	FileReader        credentials.FileReader
}

// Resolve constructs a Service.
func (resolver *DefaultServiceResolver) Resolve(logger *zap.Logger, collectConfiguration collect.Configuration, configuration Configuration) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	collectConfiguration = collectConfiguration.Sanitize()
	configuration = configuration.Sanitize()

	collectorResolver := resolver.CollectorResolver
	if collectorResolver == nil {
		collectorResolver = &collect.DefaultCollectorResolver{EnvironmentLookup: resolver.EnvironmentLookup, FileReader: resolver.FileReader}
	}
	collector, collectorError := collectorResolver.Resolve(logger, collectConfiguration)
	if collectorError != nil {
		return nil, collectorError
	}

	runner := resolver.CommandRunner
	if runner == nil {
		runner = execshell.NewOSCommandRunner()
	}
	executor, executorError := execshell.NewShellExecutor(logger, runner, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	if executorError != nil {
		return nil, executorError
	}

	repositoryPath := collectConfiguration.RepositoryPath
	return NewService(logger, Dependencies{
		Collector:   collector,
		TokenSource: credentialTokenSource{resolver: credentials.NewResolver(resolver.EnvironmentLookup, resolver.FileReader), declaration: configuration.NpmTokenSource},
		Branches:    repositoryBranchLister{repositoryPath: repositoryPath},
		Remote:      gitrepo.NewRemotePruner(executor, repositoryPath),
		Registry:    npm.NewClient(executor, repositoryPath),
		Credentials: npm.NpmrcWriter{Path: configuration.NpmrcPath, Registry: configuration.Registry},
	})
}

// credentialTokenSource reports an unset token as ErrNpmTokenMissing.
type credentialTokenSource struct {
	resolver    *credentials.Resolver
	declaration string
}

func (source credentialTokenSource) Token(executionContext context.Context) (string, error) {
	token, resolveError := source.resolver.ResolveDeclaration(executionContext, source.declaration)
	if errors.Is(resolveError, credentials.ErrCredentialMissing) {
		return "", fmt.Errorf(missingTokenTemplateConstant, ErrNpmTokenMissing, resolveError)
	}
	return token, resolveError
}

// repositoryBranchLister opens the repository per call so it sees refs updated by `git remote prune`.
type repositoryBranchLister struct {
	repositoryPath string
}

func (lister repositoryBranchLister) RemoteBranches(executionContext context.Context, remote string) ([]string, error) {
	repository, openError := gitrepo.OpenRepository(lister.repositoryPath)
	if openError != nil {
		return nil, openError
	}
	return repository.RemoteBranches(executionContext, remote)
}
