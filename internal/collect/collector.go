package collect

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/artifacts"
	"github.com/temirov/pipegate/internal/metadata"
)

const (
	missingLocalConfigurationWarning   = "no local pipeline config loaded: missing pipeline configuration file"
	missingReleaseConfigurationWarning = "no release config loaded: missing local semantic-release configuration file"
	missingDocsScriptWarning           = "no `build-docs` script defined in package.json"
	coverageDisabledWarning            = "no code coverage data will be uploaded during this run"
	debugModeWarningTemplate           = "PIPELINE IS RUNNING IN DEBUG MODE: '%s'"
	missingManifestMessageConstant     = "failed to find"

	runContextErrorTemplate    = "failed to read run context: %w"
	checkoutErrorTemplate      = "failed to check out repository: %w"
	commitErrorTemplate        = "failed to read latest commit message: %w"
	exportErrorTemplate        = "failed to export environment: %w"
	artifactErrorTemplate      = "failed to upload metadata artifact %s: %w"
	artifactUploaderMissing    = "metadata artifact upload requested but no artifact store is configured"
	cloningMessage             = "Cloning repository"
	skippedCloningMessage      = "Skipped cloning repository"
	fastSkipMessage            = "Fast skip: commit requests skipping CI"
	evaluatedSkipsMessage      = "Evaluated skip patterns"
	collectedMessage           = "Collected pipeline metadata"
	uploadingArtifactMessage   = "Uploading metadata artifact"
	skippedArtifactMessage     = "Not uploading metadata artifact"
	commitMessageFieldConstant = "commit_message"
	artifactKeyFieldConstant   = "artifact_key"
	pathFieldConstant          = "path"
	packageFieldConstant       = "package"
	branchFieldConstant        = "branch"
	shouldSkipCiFieldConstant  = "should_skip_ci"
	shouldSkipCdFieldConstant  = "should_skip_cd"
	canReleaseFieldConstant    = "can_release"
	canAutomergeFieldConstant  = "can_automerge"
)

// Dependency validation errors.
var (
	ErrRunContextProviderNotConfigured = errors.New("collector requires a run context provider")
	ErrGlobalFetcherNotConfigured      = errors.New("collector requires a global configuration fetcher")
	ErrLocalLoaderNotConfigured        = errors.New("collector requires a local configuration loader")
	ErrManifestLoaderNotConfigured     = errors.New("collector requires a manifest loader")
	ErrReleaseLoaderNotConfigured      = errors.New("collector requires a release channels loader")
	ErrCommitReaderNotConfigured       = errors.New("collector requires a commit message reader")
	ErrArtifactUploaderNotConfigured   = errors.New(artifactUploaderMissing)
)

// Options tunes one collection.
type Options struct {
	// EnableFastSkips stops resolution right after the skip decisions when the commit skips CI.
	EnableFastSkips bool
	UploadArtifact  bool
	// ForceWarnings surfaces the debug-mode notice as a warning.
	ForceWarnings bool
}

// Collector builds PipelineMetadata records.
type Collector struct {
	logger       *zap.Logger
	dependencies Dependencies
}

// NewCollector validates dependencies and constructs a Collector. A nil Warner logs warnings through logger.
func NewCollector(logger *zap.Logger, dependencies Dependencies) (*Collector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case dependencies.RunContext == nil:
		return nil, ErrRunContextProviderNotConfigured
	case dependencies.GlobalFetcher == nil:
		return nil, ErrGlobalFetcherNotConfigured
	case dependencies.LocalLoader == nil:
		return nil, ErrLocalLoaderNotConfigured
	case dependencies.ManifestLoader == nil:
		return nil, ErrManifestLoaderNotConfigured
	case dependencies.ReleaseLoader == nil:
		return nil, ErrReleaseLoaderNotConfigured
	case dependencies.CommitReader == nil:
		return nil, ErrCommitReaderNotConfigured
	}
	if dependencies.Warner == nil {
		dependencies.Warner = loggerWarner{logger: logger}
	}
	return &Collector{logger: logger, dependencies: dependencies}, nil
}

// Collect resolves the metadata record of the current run. Every returned error is fatal to the run.
func (collector *Collector) Collect(executionContext context.Context, options Options) (metadata.PipelineMetadata, error) {
	snapshot, snapshotError := collector.dependencies.RunContext.Load(executionContext)
	if snapshotError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(runContextErrorTemplate, snapshotError)
	}
	run := snapshot.Run

	if collector.dependencies.Checkout != nil {
		collector.logger.Debug(cloningMessage, zap.String(branchFieldConstant, run.CurrentBranch()))
		if checkoutError := collector.dependencies.Checkout.Checkout(executionContext, run); checkoutError != nil {
			return metadata.PipelineMetadata{}, fmt.Errorf(checkoutErrorTemplate, checkoutError)
		}
	} else {
		collector.logger.Debug(skippedCloningMessage)
	}

	layers, layersError := collector.loadConfigurationLayers(executionContext)
	if layersError != nil {
		return metadata.PipelineMetadata{}, layersError
	}

	record, resolveError := metadata.ResolvePipelineFields(layers, run)
	if resolveError != nil {
		return metadata.PipelineMetadata{}, resolveError
	}
	if pullRequestError := metadata.ValidatePullRequestContext(run); pullRequestError != nil {
		return metadata.PipelineMetadata{}, pullRequestError
	}

	if exportError := collector.exportEnvironment(executionContext, snapshot.ExportPath, record); exportError != nil {
		return metadata.PipelineMetadata{}, exportError
	}

	commitMessage, commitError := collector.dependencies.CommitReader.LatestCommitSubject(executionContext)
	if commitError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(commitErrorTemplate, commitError)
	}
	record = metadata.EvaluateSkips(record, commitMessage)
	collector.logger.Debug(evaluatedSkipsMessage, zap.String(commitMessageFieldConstant, commitMessage), zap.Bool(shouldSkipCiFieldConstant, record.ShouldSkipCi), zap.Bool(shouldSkipCdFieldConstant, record.ShouldSkipCd))

	if metadata.ShouldFastSkip(record, options.EnableFastSkips) {
		collector.logger.Info(fastSkipMessage, zap.String(commitMessageFieldConstant, commitMessage))
		return record, nil
	}

	record = metadata.EvaluatePermissions(record, run)

	record, packageError := collector.applyPackageLayers(executionContext, layers, record)
	if packageError != nil {
		return metadata.PipelineMetadata{}, packageError
	}

	if !record.HasDocs {
		collector.dependencies.Warner.Warn(missingDocsScriptWarning)
	}
	if !record.CanUploadCoverage {
		collector.dependencies.Warner.Warn(coverageDisabledWarning)
	}

	collector.logger.Debug(collectedMessage,
		zap.String(packageFieldConstant, record.PackageName),
		zap.Bool(canReleaseFieldConstant, record.CanRelease),
		zap.Bool(canAutomergeFieldConstant, record.CanAutomerge),
	)

	if uploadError := collector.uploadArtifact(executionContext, options, run, record); uploadError != nil {
		return metadata.PipelineMetadata{}, uploadError
	}

	if options.ForceWarnings {
		if debugValue := resolveDebugValue(record, snapshot.Debug); len(debugValue) > 0 {
			collector.dependencies.Warner.Warn(fmt.Sprintf(debugModeWarningTemplate, debugValue))
		}
	}

	return record, nil
}

func (collector *Collector) loadConfigurationLayers(executionContext context.Context) (metadata.ConfigurationLayers, error) {
	global, fetchError := collector.dependencies.GlobalFetcher.Fetch(executionContext)
	if fetchError != nil {
		return metadata.ConfigurationLayers{}, fetchError
	}

	local, localFound, localError := collector.dependencies.LocalLoader.Load(executionContext)
	if localError != nil {
		return metadata.ConfigurationLayers{}, localError
	}
	if !localFound {
		collector.dependencies.Warner.Warn(missingLocalConfigurationWarning, zap.String(pathFieldConstant, collector.dependencies.LocalLoader.Location()))
	}

	return metadata.ConfigurationLayers{Global: global, Local: local}, nil
}

func (collector *Collector) applyPackageLayers(executionContext context.Context, layers metadata.ConfigurationLayers, record metadata.PipelineMetadata) (metadata.PipelineMetadata, error) {
	manifest, manifestFound, manifestError := collector.dependencies.ManifestLoader.Load(executionContext)
	if manifestError != nil {
		return metadata.PipelineMetadata{}, manifestError
	}
	if !manifestFound {
		return metadata.PipelineMetadata{}, &metadata.ConfigurationError{Source: collector.dependencies.ManifestLoader.Location(), Message: missingManifestMessageConstant}
	}
	layers.Manifest = metadata.Some(manifest)

	channels, channelsFound, channelsError := collector.dependencies.ReleaseLoader.Load(executionContext)
	if channelsError != nil {
		return metadata.PipelineMetadata{}, channelsError
	}
	if channelsFound {
		layers.Release = metadata.Some(channels)
	} else {
		collector.dependencies.Warner.Warn(missingReleaseConfigurationWarning, zap.String(pathFieldConstant, collector.dependencies.ReleaseLoader.Location()))
	}

	return metadata.ApplyPackageFields(record, layers)
}

func (collector *Collector) exportEnvironment(executionContext context.Context, exportPath string, record metadata.PipelineMetadata) error {
	if collector.dependencies.EnvironmentExporter == nil {
		return nil
	}
	if exportError := collector.dependencies.EnvironmentExporter.Export(executionContext, exportPath, EnvironmentFor(record)); exportError != nil {
		return fmt.Errorf(exportErrorTemplate, exportError)
	}
	return nil
}

func (collector *Collector) uploadArtifact(executionContext context.Context, options Options, run metadata.RunContext, record metadata.PipelineMetadata) error {
	if !options.UploadArtifact {
		collector.logger.Debug(skippedArtifactMessage)
		return nil
	}
	if collector.dependencies.ArtifactUploader == nil {
		return ErrArtifactUploaderNotConfigured
	}

	key := artifacts.MetadataKey(run.RunnerOS, record.CommitSha)
	collector.logger.Debug(uploadingArtifactMessage, zap.String(artifactKeyFieldConstant, key))
	if uploadError := collector.dependencies.ArtifactUploader.Upload(executionContext, key, record.ArtifactRetentionDays, record); uploadError != nil {
		return fmt.Errorf(artifactErrorTemplate, key, uploadError)
	}
	return nil
}

// resolveDebugValue prefers a non-empty debug string over the DEBUG variable.
func resolveDebugValue(record metadata.PipelineMetadata, environmentDebug string) string {
	if debugString := record.DebugString.OrElse(""); len(debugString) > 0 {
		return debugString
	}
	return environmentDebug
}

type loggerWarner struct {
	logger *zap.Logger
}

func (warner loggerWarner) Warn(message string, fields ...zap.Field) {
	warner.logger.Warn(message, fields...)
}
