package metadata

import "strings"

const (
	// UnknownIdentityConstant is reported for package name and version when the manifest does not provide them.
	UnknownIdentityConstant = "<unknown>"
	// PullRequestEventConstant is the event name of pull request runs.
	PullRequestEventConstant = "pull_request"

	refSegmentSeparatorConstant   = "/"
	refPrefixSegmentCountConstant = 2
)

// RunContext describes the pipeline run being evaluated.
type RunContext struct {
	CommitSha         string
	Ref               string
	EventName         string
	Actor             string
	RepositoryOwner   string
	RepositoryName    string
	RunnerOS          string
	PullRequestNumber *int
	PullRequestDraft  bool
}

// CurrentBranch strips the first two segments of the ref, so "refs/heads/feature/x" yields "feature/x".
func (runContext RunContext) CurrentBranch() string {
	segments := strings.Split(runContext.Ref, refSegmentSeparatorConstant)
	if len(segments) <= refPrefixSegmentCountConstant {
		return ""
	}
	return strings.Join(segments[refPrefixSegmentCountConstant:], refSegmentSeparatorConstant)
}

// IsPullRequest reports whether the run was triggered by a pull request event.
func (runContext RunContext) IsPullRequest() bool {
	return runContext.EventName == PullRequestEventConstant
}

// Decisions are the four gating booleans consumed by every downstream stage.
type Decisions struct {
	ShouldSkipCi bool `json:"shouldSkipCi"`
	ShouldSkipCd bool `json:"shouldSkipCd"`
	CanRelease   bool `json:"canRelease"`
	CanAutomerge bool `json:"canAutomerge"`
}

// Capabilities are derived from the package manifest.
type Capabilities struct {
	HasPrivate              bool `json:"hasPrivate"`
	HasBin                  bool `json:"hasBin"`
	HasDeploy               bool `json:"hasDeploy"`
	HasDocs                 bool `json:"hasDocs"`
	HasExternals            bool `json:"hasExternals"`
	HasIntegrationNode      bool `json:"hasIntegrationNode"`
	HasIntegrationExternals bool `json:"hasIntegrationExternals"`
	HasIntegrationClient    bool `json:"hasIntegrationClient"`
	HasIntegrationWebpack   bool `json:"hasIntegrationWebpack"`
}

// PipelineMetadata is the decision record of one pipeline run. It is built once by the collector and handed to
// consumers by value.
type PipelineMetadata struct {
	PackageName         string              `json:"packageName"`
	PackageVersion      string              `json:"packageVersion"`
	ReleaseBranchConfig []ReleaseBranchRule `json:"releaseBranchConfig"`
	CiSkipRegex         SkipPattern         `json:"ciSkipRegex"`
	CdSkipRegex         SkipPattern         `json:"cdSkipRegex"`
	NodeCurrentVersion  string              `json:"nodeCurrentVersion"`
	NodeTestVersions    []string            `json:"nodeTestVersions"`
	WebpackTestVersions []string            `json:"webpackTestVersions"`
	CommitSha           string              `json:"commitSha"`
	CurrentBranch       string              `json:"currentBranch"`
	PrNumber            *int                `json:"prNumber"`
	Decisions
	CanRetryAutomerge bool `json:"canRetryAutomerge"`
	CanUploadCoverage bool `json:"canUploadCoverage"`
	Capabilities
	DebugString               Optional[string]  `json:"debugString"`
	Committer                 CommitterIdentity `json:"committer"`
	NpmAuditFailLevel         string            `json:"npmAuditFailLevel"`
	ArtifactRetentionDays     int               `json:"artifactRetentionDays"`
	RetryCeilingSeconds       int               `json:"retryCeilingSeconds"`
	ReleaseRepoOwnerWhitelist []string          `json:"releaseRepoOwnerWhitelist"`
	ReleaseActorWhitelist     []string          `json:"releaseActorWhitelist"`
	AutomergeActorWhitelist   []string          `json:"automergeActorWhitelist"`
	NpmIgnoreDistTags         []string          `json:"npmIgnoreDistTags"`
}
