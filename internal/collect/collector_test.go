package collect_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/collect"
	"github.com/temirov/pipegate/internal/metadata"
	"github.com/temirov/pipegate/internal/runcontext"
)

const (
	testManifestPathConstant = "/work/widgets/package.json"
	testReleasePathConstant  = "/work/widgets/release.config.json"
	testLocalPathConstant    = "/work/widgets/.github/pipeline.config.json"
)

type stubRunContext struct {
	snapshot runcontext.Snapshot
	failure  error
}

func (stub stubRunContext) Load(context.Context) (runcontext.Snapshot, error) {
	return stub.snapshot, stub.failure
}

type stubGlobalFetcher struct {
	global  metadata.GlobalConfiguration
	failure error
}

func (stub stubGlobalFetcher) Fetch(context.Context) (metadata.GlobalConfiguration, error) {
	return stub.global, stub.failure
}

type stubLayerLoader[T any] struct {
	value    T
	found    bool
	failure  error
	location string
	calls    *int
}

func (stub stubLayerLoader[T]) Load(context.Context) (T, bool, error) {
	if stub.calls != nil {
		*stub.calls++
	}
	return stub.value, stub.found, stub.failure
}

func (stub stubLayerLoader[T]) Location() string {
	return stub.location
}

type stubCommitReader struct {
	message string
	calls   *int
}

func (stub stubCommitReader) LatestCommitSubject(context.Context) (string, error) {
	if stub.calls != nil {
		*stub.calls++
	}
	return stub.message, nil
}

type recordingWarner struct {
	messages []string
}

func (warner *recordingWarner) Warn(message string, _ ...zap.Field) {
	warner.messages = append(warner.messages, message)
}

type recordingUploader struct {
	key           string
	retentionDays int
	record        metadata.PipelineMetadata
}

func (uploader *recordingUploader) Upload(_ context.Context, key string, retentionDays int, record metadata.PipelineMetadata) error {
	uploader.key = key
	uploader.retentionDays = retentionDays
	uploader.record = record
	return nil
}

type recordingExporter struct {
	exported    [][]collect.EnvironmentVariable
	exportPaths []string
}

func (exporter *recordingExporter) Export(_ context.Context, exportPath string, variables []collect.EnvironmentVariable) error {
	exporter.exported = append(exporter.exported, variables)
	exporter.exportPaths = append(exporter.exportPaths, exportPath)
	return nil
}

type collectorFixture struct {
	snapshot      runcontext.Snapshot
	global        metadata.GlobalConfiguration
	local         stubLayerLoader[metadata.LocalConfiguration]
	manifest      stubLayerLoader[metadata.Manifest]
	release       stubLayerLoader[metadata.ReleaseChannels]
	commitMessage string
	warner        *recordingWarner
	uploader      *recordingUploader
	exporter      *recordingExporter
	manifestCalls int
	commitCalls   int
}

func newCollectorFixture() *collectorFixture {
	fixture := &collectorFixture{
		snapshot: runcontext.Snapshot{Run: metadata.RunContext{
			CommitSha:       "abc123",
			Ref:             "refs/heads/main",
			EventName:       "push",
			Actor:           "release-bot",
			RepositoryOwner: "Acme",
			RepositoryName:  "widgets",
			RunnerOS:        "Linux",
		}, ExportPath: "/home/runner/work/_temp/_runner_file_commands/set_env"},
		global: metadata.GlobalConfiguration{
			CiSkipRegex:               `/\[skip ci\]/i`,
			CdSkipRegex:               `/\[skip cd\]/i`,
			Committer:                 metadata.CommitterIdentity{Name: "ci-bot", Email: "ci@example.com"},
			CanUploadCoverage:         true,
			ArtifactRetentionDays:     90,
			ReleaseRepoOwnerWhitelist: []string{"ACME"},
			ReleaseActorWhitelist:     []string{"release-bot"},
			AutomergeActorWhitelist:   []string{"dependabot[bot]"},
			NpmIgnoreDistTags:         []string{"next"},
		},
		local: stubLayerLoader[metadata.LocalConfiguration]{found: true, location: testLocalPathConstant},
		manifest: stubLayerLoader[metadata.Manifest]{
			found:    true,
			location: testManifestPathConstant,
			value: metadata.Manifest{
				Name:    "@acme/widgets",
				Version: "2.0.4",
				Scripts: map[string]json.RawMessage{"build-docs": json.RawMessage(`"typedoc"`), "deploy": json.RawMessage(`"deploy.sh"`)},
			},
		},
		release: stubLayerLoader[metadata.ReleaseChannels]{
			found:    true,
			location: testReleasePathConstant,
			value:    metadata.ReleaseChannels{Branches: []metadata.ReleaseBranchRule{metadata.ChanneledRule("main", "latest"), metadata.PlainRule("release-*")}},
		},
		commitMessage: "feat: add pruning",
		warner:        &recordingWarner{},
		uploader:      &recordingUploader{},
		exporter:      &recordingExporter{},
	}
	return fixture
}

func (fixture *collectorFixture) collect(testInstance *testing.T, options collect.Options) (metadata.PipelineMetadata, error) {
	testInstance.Helper()
	fixture.manifest.calls = &fixture.manifestCalls
	collector, collectorError := collect.NewCollector(zap.NewNop(), collect.Dependencies{
		RunContext:          stubRunContext{snapshot: fixture.snapshot},
		GlobalFetcher:       stubGlobalFetcher{global: fixture.global},
		LocalLoader:         fixture.local,
		ManifestLoader:      fixture.manifest,
		ReleaseLoader:       fixture.release,
		CommitReader:        stubCommitReader{message: fixture.commitMessage, calls: &fixture.commitCalls},
		ArtifactUploader:    fixture.uploader,
		EnvironmentExporter: fixture.exporter,
		Warner:              fixture.warner,
	})
	require.NoError(testInstance, collectorError)
	return collector.Collect(context.Background(), options)
}

func TestCollectorResolvesFullRecord(testInstance *testing.T) {
	fixture := newCollectorFixture()

	record, collectError := fixture.collect(testInstance, collect.Options{EnableFastSkips: true})
	require.NoError(testInstance, collectError)

	require.Equal(testInstance, "@acme/widgets", record.PackageName)
	require.Equal(testInstance, "2.0.4", record.PackageVersion)
	require.Equal(testInstance, "main", record.CurrentBranch)
	require.False(testInstance, record.ShouldSkipCi)
	require.False(testInstance, record.ShouldSkipCd)
	require.True(testInstance, record.CanRelease)
	require.False(testInstance, record.CanAutomerge)
	require.True(testInstance, record.HasDocs)
	require.True(testInstance, record.HasDeploy)
	require.Equal(testInstance, []string{"acme"}, record.ReleaseRepoOwnerWhitelist)
	require.Len(testInstance, record.ReleaseBranchConfig, 2)
	require.Empty(testInstance, fixture.warner.messages)
	require.Empty(testInstance, fixture.uploader.key)
}

func TestCollectorFastSkipKeepsDefaults(testInstance *testing.T) {
	fixture := newCollectorFixture()
	fixture.commitMessage = "chore: regenerate lockfile [SKIP CI]"

	record, collectError := fixture.collect(testInstance, collect.Options{EnableFastSkips: true, UploadArtifact: true})
	require.NoError(testInstance, collectError)

	require.True(testInstance, record.ShouldSkipCi)
	require.True(testInstance, record.ShouldSkipCd)
	require.False(testInstance, record.CanRelease)
	require.Equal(testInstance, metadata.UnknownIdentityConstant, record.PackageName)
	require.Equal(testInstance, metadata.UnknownIdentityConstant, record.PackageVersion)
	require.Empty(testInstance, record.ReleaseBranchConfig)
	require.Equal(testInstance, metadata.Capabilities{}, record.Capabilities)
	require.Zero(testInstance, fixture.manifestCalls)
	require.Empty(testInstance, fixture.uploader.key)
	require.Len(testInstance, fixture.exporter.exported, 1)
	require.Equal(testInstance, []string{"/home/runner/work/_temp/_runner_file_commands/set_env"}, fixture.exporter.exportPaths)
}

func TestCollectorWithoutFastSkipsContinuesPastSkippedCommit(testInstance *testing.T) {
	fixture := newCollectorFixture()
	fixture.commitMessage = "docs: typo [skip ci]"

	record, collectError := fixture.collect(testInstance, collect.Options{})
	require.NoError(testInstance, collectError)
	require.True(testInstance, record.ShouldSkipCi)
	require.True(testInstance, record.ShouldSkipCd)
	require.Equal(testInstance, "@acme/widgets", record.PackageName)
	require.Equal(testInstance, 1, fixture.manifestCalls)
}

func TestCollectorSkipCdOnly(testInstance *testing.T) {
	fixture := newCollectorFixture()
	fixture.commitMessage = "fix: hotfix [skip cd]"

	record, collectError := fixture.collect(testInstance, collect.Options{EnableFastSkips: true})
	require.NoError(testInstance, collectError)
	require.False(testInstance, record.ShouldSkipCi)
	require.True(testInstance, record.ShouldSkipCd)
	require.Equal(testInstance, "@acme/widgets", record.PackageName)
}

func TestCollectorPullRequestPermissions(testInstance *testing.T) {
	pullRequestNumber := 17
	testCases := []struct {
		name              string
		number            *int
		draft             bool
		expectError       bool
		expectedAutomerge bool
	}{
		{name: "ready pull request", number: &pullRequestNumber, expectedAutomerge: true},
		{name: "draft pull request", number: &pullRequestNumber, draft: true, expectedAutomerge: false},
		{name: "pull request without number", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCollectorFixture()
			fixture.snapshot.Run.EventName = metadata.PullRequestEventConstant
			fixture.snapshot.Run.Actor = "dependabot[bot]"
			fixture.snapshot.Run.PullRequestNumber = testCase.number
			fixture.snapshot.Run.PullRequestDraft = testCase.draft

			record, collectError := fixture.collect(testInstance, collect.Options{EnableFastSkips: true})
			if testCase.expectError {
				var configurationError *metadata.ConfigurationError
				require.ErrorAs(testInstance, collectError, &configurationError)
				require.Zero(testInstance, fixture.commitCalls)
				require.Empty(testInstance, fixture.exporter.exported)
				return
			}
			require.NoError(testInstance, collectError)
			require.Equal(testInstance, testCase.expectedAutomerge, record.CanAutomerge)
			require.False(testInstance, record.CanRelease)
			require.Equal(testInstance, &pullRequestNumber, record.PrNumber)
		})
	}
}

func TestCollectorWarnings(testInstance *testing.T) {
	fixture := newCollectorFixture()
	fixture.local = stubLayerLoader[metadata.LocalConfiguration]{location: testLocalPathConstant}
	fixture.release = stubLayerLoader[metadata.ReleaseChannels]{location: testReleasePathConstant}
	fixture.manifest.value.Scripts = map[string]json.RawMessage{}
	fixture.global.CanUploadCoverage = false

	record, collectError := fixture.collect(testInstance, collect.Options{})
	require.NoError(testInstance, collectError)
	require.Empty(testInstance, record.ReleaseBranchConfig)
	require.Equal(testInstance, []string{
		"no local pipeline config loaded: missing pipeline configuration file",
		"no release config loaded: missing local semantic-release configuration file",
		"no `build-docs` script defined in package.json",
		"no code coverage data will be uploaded during this run",
	}, fixture.warner.messages)
}

func TestCollectorDebugModeWarning(testInstance *testing.T) {
	testCases := []struct {
		name             string
		debugString      metadata.Optional[string]
		environmentDebug string
		forceWarnings    bool
		expectedWarning  string
	}{
		{name: "local debug string", debugString: metadata.Some("pipegate:*"), forceWarnings: true, expectedWarning: "PIPELINE IS RUNNING IN DEBUG MODE: 'pipegate:*'"},
		{name: "environment debug", environmentDebug: "*", forceWarnings: true, expectedWarning: "PIPELINE IS RUNNING IN DEBUG MODE: '*'"},
		{name: "empty debug string falls back to environment", debugString: metadata.Some(""), environmentDebug: "npm:*", forceWarnings: true, expectedWarning: "PIPELINE IS RUNNING IN DEBUG MODE: 'npm:*'"},
		{name: "warnings not forced", debugString: metadata.Some("pipegate:*")},
		{name: "nothing to report", forceWarnings: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCollectorFixture()
			fixture.local.value.DebugString = testCase.debugString
			fixture.snapshot.Debug = testCase.environmentDebug

			_, collectError := fixture.collect(testInstance, collect.Options{ForceWarnings: testCase.forceWarnings})
			require.NoError(testInstance, collectError)
			if len(testCase.expectedWarning) == 0 {
				require.Empty(testInstance, fixture.warner.messages)
				return
			}
			require.Equal(testInstance, []string{testCase.expectedWarning}, fixture.warner.messages)
		})
	}
}

func TestCollectorUploadsArtifact(testInstance *testing.T) {
	fixture := newCollectorFixture()
	fixture.local.value.ArtifactRetentionDays = metadata.Some(0)

	record, collectError := fixture.collect(testInstance, collect.Options{UploadArtifact: true})
	require.NoError(testInstance, collectError)
	require.Equal(testInstance, "metadata-Linux-abc123", fixture.uploader.key)
	require.Equal(testInstance, 0, fixture.uploader.retentionDays)
	require.Equal(testInstance, record.PackageName, fixture.uploader.record.PackageName)
}

func TestCollectorFatalErrors(testInstance *testing.T) {
	testCases := []struct {
		name           string
		mutate         func(fixture *collectorFixture)
		expectedSubstr string
	}{
		{
			name:           "missing manifest",
			mutate:         func(fixture *collectorFixture) { fixture.manifest.found = false },
			expectedSubstr: testManifestPathConstant + ": failed to find",
		},
		{
			name: "unpaired externals scripts",
			mutate: func(fixture *collectorFixture) {
				fixture.manifest.value.Scripts = map[string]json.RawMessage{"build-externals": json.RawMessage(`"webpack"`)}
			},
			expectedSubstr: "build-externals",
		},
		{
			name: "malformed local configuration",
			mutate: func(fixture *collectorFixture) {
				fixture.local.failure = &metadata.ConfigurationError{Source: testLocalPathConstant, Message: "failed to parse"}
			},
			expectedSubstr: testLocalPathConstant + ": failed to parse",
		},
		{
			name: "malformed release configuration",
			mutate: func(fixture *collectorFixture) {
				fixture.release.failure = &metadata.ConfigurationError{Source: testReleasePathConstant, Message: "failed to parse"}
			},
			expectedSubstr: testReleasePathConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCollectorFixture()
			testCase.mutate(fixture)

			_, collectError := fixture.collect(testInstance, collect.Options{})
			var configurationError *metadata.ConfigurationError
			require.ErrorAs(testInstance, collectError, &configurationError)
			require.ErrorContains(testInstance, collectError, testCase.expectedSubstr)
		})
	}
}

func TestCollectorGlobalFetchFailureStopsBeforeLocalLoad(testInstance *testing.T) {
	localCalls := 0
	fetchFailure := &metadata.ConfigurationError{Source: "https://config.example.com", Message: "failed to fetch global pipeline config"}
	collector, collectorError := collect.NewCollector(nil, collect.Dependencies{
		RunContext:     stubRunContext{},
		GlobalFetcher:  stubGlobalFetcher{failure: fetchFailure},
		LocalLoader:    stubLayerLoader[metadata.LocalConfiguration]{calls: &localCalls},
		ManifestLoader: stubLayerLoader[metadata.Manifest]{},
		ReleaseLoader:  stubLayerLoader[metadata.ReleaseChannels]{},
		CommitReader:   stubCommitReader{},
	})
	require.NoError(testInstance, collectorError)

	_, collectError := collector.Collect(context.Background(), collect.Options{})
	require.ErrorIs(testInstance, collectError, fetchFailure)
	require.Zero(testInstance, localCalls)
}

func TestCollectorArtifactUploadWithoutStore(testInstance *testing.T) {
	fixture := newCollectorFixture()
	collector, collectorError := collect.NewCollector(nil, collect.Dependencies{
		RunContext:     stubRunContext{snapshot: fixture.snapshot},
		GlobalFetcher:  stubGlobalFetcher{global: fixture.global},
		LocalLoader:    fixture.local,
		ManifestLoader: fixture.manifest,
		ReleaseLoader:  fixture.release,
		CommitReader:   stubCommitReader{message: "feat: x"},
	})
	require.NoError(testInstance, collectorError)

	_, collectError := collector.Collect(context.Background(), collect.Options{UploadArtifact: true})
	require.ErrorIs(testInstance, collectError, collect.ErrArtifactUploaderNotConfigured)
}

func TestNewCollectorValidatesDependencies(testInstance *testing.T) {
	_, collectorError := collect.NewCollector(nil, collect.Dependencies{})
	require.ErrorIs(testInstance, collectorError, collect.ErrRunContextProviderNotConfigured)

	_, collectorError = collect.NewCollector(nil, collect.Dependencies{RunContext: stubRunContext{failure: errors.New("unused")}})
	require.ErrorIs(testInstance, collectorError, collect.ErrGlobalFetcherNotConfigured)
}
