package disttags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/metadata"
)

const (
	defaultRemoteConstant = "origin"

	skippedCleanupMessage   = "Skipping dist-tag cleanup: commit requests skipping CI"
	listTagsFailedMessage   = "Failed to list dist-tags, assuming none are published"
	computedPlanMessage     = "Computed dist-tag pruning plan"
	nothingToPruneMessage   = "No outdated dist-tags to prune"
	dryRunMessage           = "Dry run: not deleting dist-tags"
	remoteFieldConstant     = "remote"
	branchesFieldConstant   = "release_branches"
	channelsFieldConstant   = "pinned_channels"
	candidatesFieldConstant = "candidates"

	tokenErrorTemplate       = "failed to resolve npm auth token: %w"
	collectErrorTemplate     = "failed to collect pipeline metadata: %w"
	pruneRemoteErrorTemplate = "failed to prune remote %s: %w"
	branchesErrorTemplate    = "failed to list remote branches of %s: %w"
	credentialsErrorTemplate = "failed to write npm credentials: %w"
)

// Dependency validation errors.
var (
	ErrCollectorNotConfigured    = errors.New("dist-tag cleanup requires a metadata collector")
	ErrTokenSourceNotConfigured  = errors.New("dist-tag cleanup requires an npm token source")
	ErrBranchListerNotConfigured = errors.New("dist-tag cleanup requires a branch lister")
	ErrRegistryNotConfigured     = errors.New("dist-tag cleanup requires a dist-tag registry")
	ErrCredentialsNotConfigured  = errors.New("dist-tag cleanup requires a credentials writer")
	ErrRemotePrunerNotConfigured = errors.New("dist-tag cleanup requires a remote pruner")
)

// MetadataCollector resolves the pipeline metadata of the current run.
type MetadataCollector interface {
	Collect(executionContext context.Context, options collect.Options) (metadata.PipelineMetadata, error)
}

// TokenSource supplies the npm auth token.
type TokenSource interface {
	Token(executionContext context.Context) (string, error)
}

// BranchLister lists the remote-tracking branches of a remote.
type BranchLister interface {
	RemoteBranches(executionContext context.Context, remote string) ([]string, error)
}

// RemotePruner drops remote-tracking branches deleted upstream.
type RemotePruner interface {
	PruneRemote(executionContext context.Context, remote string) error
}

// DistTagRegistry lists and deletes dist-tags of a package.
type DistTagRegistry interface {
	ListDistTags(executionContext context.Context, packageName string) ([]string, error)
	DistTagDeleter
}

// CredentialsWriter stores the npm auth token where npm reads it.
type CredentialsWriter interface {
	WriteAuthToken(executionContext context.Context, token string) error
}

// Dependencies enumerates the collaborators of a Service.
type Dependencies struct {
	Collector   MetadataCollector
	TokenSource TokenSource
	Branches    BranchLister
	Remote      RemotePruner
	Registry    DistTagRegistry
	Credentials CredentialsWriter
}

// Options tunes one cleanup.
type Options struct {
	Remote      string
	DryRun      bool
	Concurrency int
	// ForceWarnings is forwarded to metadata collection.
	ForceWarnings bool
}

// Report summarises one cleanup.
type Report struct {
	PackageName string
	Skipped     bool
	DryRun      bool
	Plan        Plan
	Deleted     []string
}

// Service prunes the outdated dist-tags of the package in the current repository.
type Service struct {
	logger       *zap.Logger
	dependencies Dependencies
}

// NewService validates dependencies and constructs a Service.
func NewService(logger *zap.Logger, dependencies Dependencies) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case dependencies.Collector == nil:
		return nil, ErrCollectorNotConfigured
	case dependencies.TokenSource == nil:
		return nil, ErrTokenSourceNotConfigured
	case dependencies.Branches == nil:
		return nil, ErrBranchListerNotConfigured
	case dependencies.Registry == nil:
		return nil, ErrRegistryNotConfigured
	case dependencies.Credentials == nil:
		return nil, ErrCredentialsNotConfigured
	case dependencies.Remote == nil:
		return nil, ErrRemotePrunerNotConfigured
	}
	return &Service{logger: logger, dependencies: dependencies}, nil
}

// Cleanup collects metadata with fast skips, then deletes every published dist-tag the plan marks as a candidate.
// The auth token is required up front even when nothing ends up being deleted.
func (service *Service) Cleanup(executionContext context.Context, options Options) (Report, error) {
	token, tokenError := service.dependencies.TokenSource.Token(executionContext)
	if tokenError != nil {
		return Report{}, fmt.Errorf(tokenErrorTemplate, tokenError)
	}
	if len(strings.TrimSpace(token)) == 0 {
		return Report{}, ErrNpmTokenMissing
	}

	record, collectError := service.dependencies.Collector.Collect(executionContext, collect.Options{EnableFastSkips: true, ForceWarnings: options.ForceWarnings})
	if collectError != nil {
		return Report{}, fmt.Errorf(collectErrorTemplate, collectError)
	}

	report := Report{PackageName: record.PackageName, DryRun: options.DryRun, Deleted: []string{}}
	if record.ShouldSkipCi {
		service.logger.Info(skippedCleanupMessage)
		report.Skipped = true
		return report, nil
	}

	remote := strings.TrimSpace(options.Remote)
	if len(remote) == 0 {
		remote = defaultRemoteConstant
	}
	if pruneError := service.dependencies.Remote.PruneRemote(executionContext, remote); pruneError != nil {
		return Report{}, fmt.Errorf(pruneRemoteErrorTemplate, remote, pruneError)
	}

	branches, branchesError := service.dependencies.Branches.RemoteBranches(executionContext, remote)
	if branchesError != nil {
		return Report{}, fmt.Errorf(branchesErrorTemplate, remote, branchesError)
	}

	publishedTags, listError := service.dependencies.Registry.ListDistTags(executionContext, record.PackageName)
	if listError != nil {
		service.logger.Warn(listTagsFailedMessage, zap.String(packageFieldConstant, record.PackageName), zap.Error(listError))
		publishedTags = []string{}
	}

	plan, planError := ComputePlan(PlanInput{
		RemoteBranches: branches,
		PublishedTags:  publishedTags,
		Rules:          record.ReleaseBranchConfig,
		IgnoredTags:    record.NpmIgnoreDistTags,
	})
	if planError != nil {
		return Report{}, planError
	}
	report.Plan = plan
	service.logger.Debug(computedPlanMessage,
		zap.String(remoteFieldConstant, remote),
		zap.Strings(branchesFieldConstant, report.Plan.ReleaseBranches),
		zap.Strings(channelsFieldConstant, report.Plan.PinnedChannels),
		zap.Strings(candidatesFieldConstant, report.Plan.Candidates),
	)

	if len(report.Plan.Candidates) == 0 {
		service.logger.Info(nothingToPruneMessage, zap.String(packageFieldConstant, record.PackageName))
		return report, nil
	}
	if options.DryRun {
		service.logger.Info(dryRunMessage, zap.Strings(candidatesFieldConstant, report.Plan.Candidates))
		return report, nil
	}

	if credentialsError := service.dependencies.Credentials.WriteAuthToken(executionContext, token); credentialsError != nil {
		return Report{}, fmt.Errorf(credentialsErrorTemplate, credentialsError)
	}

	pruner := NewPruner(service.logger, service.dependencies.Registry, options.Concurrency)
	deleted, pruneError := pruner.Prune(executionContext, record.PackageName, report.Plan.Candidates)
	report.Deleted = deleted
	return report, pruneError
}
