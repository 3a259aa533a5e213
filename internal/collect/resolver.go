package collect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/artifacts"
	"github.com/temirov/pipegate/internal/credentials"
	"github.com/temirov/pipegate/internal/gitrepo"
	"github.com/temirov/pipegate/internal/metadata"
	"github.com/temirov/pipegate/internal/runcontext"
	"github.com/temirov/pipegate/internal/sources"
	"github.com/temirov/pipegate/internal/ui"
)

const (
	optionalCredentialMessage   = "Optional credential not available"
	repositoryFallbackMessage   = "Repository owner resolved from origin remote"
	credentialFieldConstant     = "credential"
	ownerFieldConstant          = "owner"
	repositoryNameFieldConstant = "repository"
	artifactKeysFieldConstant   = "artifacts"

	expiredArtifactsRemovedMessage     = "Removed expired artifacts"
	expiredArtifactsSweepFailedMessage = "Unable to remove expired artifacts"
)

// CollectorResolver builds collectors for commands.
type CollectorResolver interface {
	Resolve(logger *zap.Logger, configuration Configuration) (*Collector, error)
}

// DefaultCollectorResolver wires the production collaborators: go-git, the HTTP global fetcher, the file loaders,
// the filesystem artifact store and the Actions environment file.
type DefaultCollectorResolver struct {
	EnvironmentLookup credentials.EnvironmentLookup
	FileReader        credentials.FileReader
	HTTPClient        *http.Client
	Annotations       io.Writer
	Setenv            func(key string, value string) error
}

// Resolve constructs a Collector for configuration.
func (resolver *DefaultCollectorResolver) Resolve(logger *zap.Logger, configuration Configuration) (*Collector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	configuration = configuration.Sanitize()
	lookupEnvironment := resolver.EnvironmentLookup
	if lookupEnvironment == nil {
		lookupEnvironment = os.LookupEnv
	}
	credentialResolver := credentials.NewResolver(lookupEnvironment, resolver.FileReader)

	globalToken, globalTokenError := resolveOptionalCredential(logger, credentialResolver, configuration.GlobalConfigTokenSource)
	if globalTokenError != nil {
		return nil, globalTokenError
	}

	annotations := resolver.Annotations
	if annotations == nil {
		annotations = os.Stderr
	}

	dependencies := Dependencies{
		RunContext: &repositoryRunContextProvider{
			logger:         logger,
			loader:         runcontext.NewLoader(runcontext.Options{DotenvPath: configuration.DotenvPath, LookupEnvironment: lookupEnvironment, ReadFile: resolver.FileReader}),
			repositoryPath: configuration.RepositoryPath,
		},
		GlobalFetcher: sources.NewHTTPGlobalConfigurationFetcher(sources.GlobalFetcherOptions{
			URI:        configuration.GlobalConfigURI,
			Token:      globalToken,
			Timeout:    configuration.GlobalConfigTimeout,
			HTTPClient: resolver.HTTPClient,
			ReadFile:   sources.FileReader(resolver.FileReader),
		}),
		LocalLoader:    sources.LocalConfigurationLoader{Path: configuration.LocalConfigPath, ReadFile: sources.FileReader(resolver.FileReader)},
		ManifestLoader: sources.ManifestLoader{Path: configuration.ManifestPath, ReadFile: sources.FileReader(resolver.FileReader)},
		ReleaseLoader:  sources.ReleaseChannelsLoader{Path: configuration.ReleaseConfigPath, ReadFile: sources.FileReader(resolver.FileReader)},
		CommitReader:   repositoryCommitReader{repositoryPath: configuration.RepositoryPath},
		Warner:         ui.NewWarningReporter(logger, ui.NewAnnotationWriter(annotations)),
	}

	if configuration.Checkout {
		githubToken, githubTokenError := resolveOptionalCredential(logger, credentialResolver, configuration.GitHubTokenSource)
		if githubTokenError != nil {
			return nil, githubTokenError
		}
		dependencies.Checkout = repositoryCheckout{
			cloner:    gitrepo.NewCloner(logger),
			directory: configuration.RepositoryPath,
			depth:     configuration.CheckoutDepth,
			token:     githubToken,
		}
	}

	if configuration.UploadArtifact {
		codec, codecError := artifacts.CodecByName(configuration.ArtifactCodec)
		if codecError != nil {
			return nil, codecError
		}
		store, storeError := artifacts.NewFileStore(configuration.ArtifactDirectory, codec, nil)
		if storeError != nil {
			return nil, storeError
		}
		dependencies.ArtifactUploader = storeUploader{logger: logger, store: store}
	}

	if configuration.ExportEnvironment {
		dependencies.EnvironmentExporter = ActionsEnvironmentExporter{Setenv: resolver.Setenv}
	}

	return NewCollector(logger, dependencies)
}

// resolveOptionalCredential treats a declared but unset credential as absent.
func resolveOptionalCredential(logger *zap.Logger, resolver *credentials.Resolver, declaration string) (string, error) {
	secret, resolveError := resolver.ResolveDeclaration(context.Background(), declaration)
	if errors.Is(resolveError, credentials.ErrCredentialMissing) {
		logger.Debug(optionalCredentialMessage, zap.String(credentialFieldConstant, declaration))
		return "", nil
	}
	return secret, resolveError
}

// repositoryRunContextProvider fills a missing repository owner or name from the origin remote, which is what local
// runs outside GitHub Actions have to go on.
type repositoryRunContextProvider struct {
	logger         *zap.Logger
	loader         *runcontext.Loader
	repositoryPath string
}

func (provider *repositoryRunContextProvider) Load(executionContext context.Context) (runcontext.Snapshot, error) {
	snapshot, loadError := provider.loader.Load(executionContext)
	if loadError != nil {
		return runcontext.Snapshot{}, loadError
	}
	if len(snapshot.Run.RepositoryOwner) > 0 && len(snapshot.Run.RepositoryName) > 0 {
		return snapshot, nil
	}

	repository, openError := gitrepo.OpenRepository(provider.repositoryPath)
	if openError != nil {
		return snapshot, nil
	}
	locator, locatorError := repository.RemoteLocator(gitrepo.DefaultRemoteNameConstant)
	if locatorError != nil {
		return snapshot, nil
	}
	if len(snapshot.Run.RepositoryOwner) == 0 {
		snapshot.Run.RepositoryOwner = locator.Owner
	}
	if len(snapshot.Run.RepositoryName) == 0 {
		snapshot.Run.RepositoryName = locator.Name
	}
	provider.logger.Debug(repositoryFallbackMessage, zap.String(ownerFieldConstant, snapshot.Run.RepositoryOwner), zap.String(repositoryNameFieldConstant, snapshot.Run.RepositoryName))
	return snapshot, nil
}

// repositoryCommitReader opens the repository on demand because the checkout may create it.
type repositoryCommitReader struct {
	repositoryPath string
}

func (reader repositoryCommitReader) LatestCommitSubject(executionContext context.Context) (string, error) {
	repository, openError := gitrepo.OpenRepository(reader.repositoryPath)
	if openError != nil {
		return "", openError
	}
	return repository.LatestCommitSubject(executionContext)
}

type repositoryCheckout struct {
	cloner    *gitrepo.Cloner
	directory string
	depth     int
	token     string
}

func (checkout repositoryCheckout) Checkout(executionContext context.Context, run metadata.RunContext) error {
	_, cloneError := checkout.cloner.Clone(executionContext, gitrepo.CloneRequest{
		Locator:   gitrepo.RemoteLocator{Owner: run.RepositoryOwner, Name: run.RepositoryName},
		Directory: checkout.directory,
		Reference: run.Ref,
		Hash:      run.CommitSha,
		Depth:     checkout.depth,
		Token:     checkout.token,
	})
	return cloneError
}

// storeUploader sweeps artifacts past their retention window before storing the new record.
type storeUploader struct {
	logger *zap.Logger
	store  *artifacts.FileStore
}

func (uploader storeUploader) Upload(executionContext context.Context, key string, retentionDays int, record metadata.PipelineMetadata) error {
	removedKeys, sweepError := uploader.store.RemoveExpired(executionContext)
	if sweepError != nil {
		uploader.logger.Warn(expiredArtifactsSweepFailedMessage, zap.Error(sweepError))
	} else if len(removedKeys) > 0 {
		uploader.logger.Debug(expiredArtifactsRemovedMessage, zap.Strings(artifactKeysFieldConstant, removedKeys))
	}
	_, uploadError := uploader.store.Upload(executionContext, key, retentionDays, record)
	return uploadError
}
