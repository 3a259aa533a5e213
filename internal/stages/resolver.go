package stages

import (
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/execshell"
	"github.com/temirov/pipegate/internal/npm"
	"github.com/temirov/pipegate/internal/ui"
)

// ServiceResolver builds stage services for the command.
type ServiceResolver interface {
	Resolve(logger *zap.Logger, collectConfiguration collect.Configuration) (*Service, error)
}

// DefaultServiceResolver wires the metadata collector and the npm CLI in the repository directory.
type DefaultServiceResolver struct {
	CollectorResolver collect.CollectorResolver
	CommandRunner     execshell.CommandRunner
}

// Resolve constructs a Service.
func (resolver *DefaultServiceResolver) Resolve(logger *zap.Logger, collectConfiguration collect.Configuration) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	collectConfiguration = collectConfiguration.Sanitize()

	collectorResolver := resolver.CollectorResolver
	if collectorResolver == nil {
		collectorResolver = &collect.DefaultCollectorResolver{}
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

	return NewService(logger, collector, npm.NewClient(executor, collectConfiguration.RepositoryPath))
}
