package stages

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/metadata"
)

const (
	skipCiReason = "commit requests skipping CI"

	skippedStageMessage   = "Skipped stage"
	installingMessage     = "Installing dependencies"
	runningScriptMessage  = "Running stage script"
	completedStageMessage = "Completed stage"
	stageFieldConstant    = "stage"
	reasonFieldConstant   = "reason"
	scriptFieldConstant   = "script"

	collectErrorTemplate = "failed to collect pipeline metadata: %w"
	installErrorTemplate = "failed to install dependencies: %w"
	scriptErrorTemplate  = "script %s failed: %w"
)

// Dependency validation errors.
var (
	ErrCollectorNotConfigured = errors.New("stage runner requires a metadata collector")
	ErrScriptsNotConfigured   = errors.New("stage runner requires a script runner")
)

// MetadataCollector resolves the pipeline metadata of the current run.
type MetadataCollector interface {
	Collect(executionContext context.Context, options collect.Options) (metadata.PipelineMetadata, error)
}

// ScriptRunner installs dependencies and runs package scripts.
type ScriptRunner interface {
	CleanInstall(executionContext context.Context) error
	RunScript(executionContext context.Context, script string, arguments ...string) error
}

// Options tunes one stage run.
type Options struct {
	InstallDependencies bool
	ForceWarnings       bool
	UploadArtifact      bool
}

// Result summarises one stage run.
type Result struct {
	Stage      string
	Skipped    bool
	SkipReason string
	Scripts    []string
}

// Service runs stages.
type Service struct {
	logger    *zap.Logger
	collector MetadataCollector
	scripts   ScriptRunner
}

// NewService validates dependencies and constructs a Service.
func NewService(logger *zap.Logger, collector MetadataCollector, scripts ScriptRunner) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		return nil, ErrCollectorNotConfigured
	}
	if scripts == nil {
		return nil, ErrScriptsNotConfigured
	}
	return &Service{logger: logger, collector: collector, scripts: scripts}, nil
}

// Run collects the metadata with fast skips, then runs the scripts of the named stage unless the commit skips CI or
// the stage gate refuses. Scripts stop at the first failure.
func (service *Service) Run(executionContext context.Context, name string, options Options) (Result, error) {
	definition, lookupError := Lookup(name)
	if lookupError != nil {
		return Result{}, lookupError
	}

	record, collectError := service.collector.Collect(executionContext, collect.Options{
		EnableFastSkips: true,
		ForceWarnings:   options.ForceWarnings,
		UploadArtifact:  options.UploadArtifact,
	})
	if collectError != nil {
		return Result{}, fmt.Errorf(collectErrorTemplate, collectError)
	}

	result := Result{Stage: definition.Name, Scripts: []string{}}
	reason := definition.SkipReason(record)
	if record.ShouldSkipCi {
		reason = skipCiReason
	}
	if len(reason) > 0 {
		service.logger.Info(skippedStageMessage, zap.String(stageFieldConstant, definition.Name), zap.String(reasonFieldConstant, reason))
		result.Skipped = true
		result.SkipReason = reason
		return result, nil
	}

	if options.InstallDependencies {
		service.logger.Info(installingMessage, zap.String(stageFieldConstant, definition.Name))
		if installError := service.scripts.CleanInstall(executionContext); installError != nil {
			return result, fmt.Errorf(installErrorTemplate, installError)
		}
	}

	for _, script := range definition.ScriptsFor(record) {
		service.logger.Info(runningScriptMessage, zap.String(stageFieldConstant, definition.Name), zap.String(scriptFieldConstant, script))
		if scriptError := service.scripts.RunScript(executionContext, script); scriptError != nil {
			return result, fmt.Errorf(scriptErrorTemplate, script, scriptError)
		}
		result.Scripts = append(result.Scripts, script)
	}

	service.logger.Info(completedStageMessage, zap.String(stageFieldConstant, definition.Name))
	return result, nil
}
