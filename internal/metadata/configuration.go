package metadata

import (
	"bytes"
	"encoding/json"
)

// CommitterIdentity is the git identity used for commits the pipeline creates.
type CommitterIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GlobalConfiguration is the organisation-wide default configuration fetched at the start of every run.
type GlobalConfiguration struct {
	CiSkipRegex               string            `json:"ciSkipRegex"`
	CdSkipRegex               string            `json:"cdSkipRegex"`
	NodeCurrentVersion        string            `json:"nodeCurrentVersion"`
	NodeTestVersions          []string          `json:"nodeTestVersions"`
	WebpackTestVersions       []string          `json:"webpackTestVersions"`
	CanRetryAutomerge         bool              `json:"canRetryAutomerge"`
	CanUploadCoverage         bool              `json:"canUploadCoverage"`
	Committer                 CommitterIdentity `json:"committer"`
	NpmAuditFailLevel         string            `json:"npmAuditFailLevel"`
	ArtifactRetentionDays     int               `json:"artifactRetentionDays"`
	RetryCeilingSeconds       int               `json:"retryCeilingSeconds"`
	ReleaseRepoOwnerWhitelist []string          `json:"releaseRepoOwnerWhitelist"`
	ReleaseActorWhitelist     []string          `json:"releaseActorWhitelist"`
	AutomergeActorWhitelist   []string          `json:"automergeActorWhitelist"`
	NpmIgnoreDistTags         []string          `json:"npmIgnoreDistTags"`
}

// LocalCommitter overrides parts of the global committer identity.
type LocalCommitter struct {
	Name  Optional[string] `json:"name"`
	Email Optional[string] `json:"email"`
}

// LocalConfiguration is the per-repository override file. Every field is optional and an absent field defers to the
// global configuration. Whitelists cannot be overridden locally.
type LocalConfiguration struct {
	CiSkipRegex           Optional[string]   `json:"ciSkipRegex"`
	CdSkipRegex           Optional[string]   `json:"cdSkipRegex"`
	NodeCurrentVersion    Optional[string]   `json:"nodeCurrentVersion"`
	NodeTestVersions      Optional[[]string] `json:"nodeTestVersions"`
	WebpackTestVersions   Optional[[]string] `json:"webpackTestVersions"`
	CanRetryAutomerge     Optional[bool]     `json:"canRetryAutomerge"`
	CanUploadCoverage     Optional[bool]     `json:"canUploadCoverage"`
	Committer             LocalCommitter     `json:"committer"`
	NpmAuditFailLevel     Optional[string]   `json:"npmAuditFailLevel"`
	ArtifactRetentionDays Optional[int]      `json:"artifactRetentionDays"`
	RetryCeilingSeconds   Optional[int]      `json:"retryCeilingSeconds"`
	DebugString           Optional[string]   `json:"debugString"`
}

// Manifest is the subset of package.json the pipeline inspects.
type Manifest struct {
	Name    string                     `json:"name"`
	Version string                     `json:"version"`
	Scripts map[string]json.RawMessage `json:"scripts"`
	Bin     json.RawMessage            `json:"bin"`
	Private json.RawMessage            `json:"private"`
}

// HasScript reports whether the script table declares name.
func (manifest Manifest) HasScript(name string) bool {
	_, declared := manifest.Scripts[name]
	return declared
}

// DeclaresBin reports whether the manifest has a non-empty bin entry.
func (manifest Manifest) DeclaresBin() bool {
	return isTruthyJSON(manifest.Bin)
}

// IsPrivate reports whether the manifest is marked private.
func (manifest Manifest) IsPrivate() bool {
	return isTruthyJSON(manifest.Private)
}

// ReleaseChannels is the release-channel declaration listing release branch rules.
type ReleaseChannels struct {
	Branches []ReleaseBranchRule `json:"branches" yaml:"branches"`
}

// ConfigurationLayers bundles every configuration source consulted during resolution. Manifest and Release are
// absent until the collector reaches them, and stay absent when a fast skip stops resolution early.
type ConfigurationLayers struct {
	Global   GlobalConfiguration
	Local    LocalConfiguration
	Manifest Optional[Manifest]
	Release  Optional[ReleaseChannels]
}

// isTruthyJSON treats absent, null, false, 0 and "" as false and everything else, including {} and [], as true.
func isTruthyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "null", "false", "0", `""`:
		return false
	default:
		return true
	}
}
