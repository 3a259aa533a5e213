package collect

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/metadata"
	"github.com/temirov/pipegate/internal/runcontext"
)

// RunContextProvider describes the current run.
type RunContextProvider interface {
	Load(executionContext context.Context) (runcontext.Snapshot, error)
}

// RepositoryCheckout makes the repository of the run available locally.
type RepositoryCheckout interface {
	Checkout(executionContext context.Context, run metadata.RunContext) error
}

// GlobalConfigurationFetcher retrieves the organisation-wide configuration.
type GlobalConfigurationFetcher interface {
	Fetch(executionContext context.Context) (metadata.GlobalConfiguration, error)
}

// LocalConfigurationLoader reads the optional per-repository override.
type LocalConfigurationLoader interface {
	Load(executionContext context.Context) (metadata.LocalConfiguration, bool, error)
	Location() string
}

// ManifestLoader reads the package manifest.
type ManifestLoader interface {
	Load(executionContext context.Context) (metadata.Manifest, bool, error)
	Location() string
}

// ReleaseChannelsLoader reads the optional release-channel declaration.
type ReleaseChannelsLoader interface {
	Load(executionContext context.Context) (metadata.ReleaseChannels, bool, error)
	Location() string
}

// CommitMessageReader returns the subject of the commit under test.
type CommitMessageReader interface {
	LatestCommitSubject(executionContext context.Context) (string, error)
}

// ArtifactUploader persists the finished record.
type ArtifactUploader interface {
	Upload(executionContext context.Context, key string, retentionDays int, record metadata.PipelineMetadata) error
}

// EnvironmentExporter publishes variables to later steps of the job.
type EnvironmentExporter interface {
	// Export publishes variables; exportPath is the job's environment file and may be empty.
	Export(executionContext context.Context, exportPath string, variables []EnvironmentVariable) error
}

// Warner reports a non-fatal condition to the pipeline log.
type Warner interface {
	Warn(message string, fields ...zap.Field)
}

// Dependencies enumerates the collaborators of a Collector. Checkout, ArtifactUploader and EnvironmentExporter are
// optional.
type Dependencies struct {
	RunContext          RunContextProvider
	Checkout            RepositoryCheckout
	GlobalFetcher       GlobalConfigurationFetcher
	LocalLoader         LocalConfigurationLoader
	ManifestLoader      ManifestLoader
	ReleaseLoader       ReleaseChannelsLoader
	CommitReader        CommitMessageReader
	ArtifactUploader    ArtifactUploader
	EnvironmentExporter EnvironmentExporter
	Warner              Warner
}
