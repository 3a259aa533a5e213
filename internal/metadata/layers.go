package metadata

import (
	"strings"
)

const (
	// GlobalConfigurationSourceConstant labels errors raised for the global configuration layer.
	GlobalConfigurationSourceConstant = "global configuration"
	// LocalConfigurationSourceConstant labels errors raised for the local configuration layer.
	LocalConfigurationSourceConstant = "local configuration"
	// ManifestSourceConstant labels errors raised for the package manifest layer.
	ManifestSourceConstant = "package manifest"

	ciSkipRegexFieldConstant            = "ciSkipRegex"
	cdSkipRegexFieldConstant            = "cdSkipRegex"
	missingRequiredFieldMessageConstant = "missing required field"
	invalidRegexMessageConstant         = "invalid regular expression"
)

// ValidateGlobalConfiguration checks the fields every run depends on: both skip patterns must be present and compile.
func ValidateGlobalConfiguration(global GlobalConfiguration) error {
	for _, field := range []struct {
		name   string
		source string
	}{
		{name: ciSkipRegexFieldConstant, source: global.CiSkipRegex},
		{name: cdSkipRegexFieldConstant, source: global.CdSkipRegex},
	} {
		if len(field.source) == 0 {
			return &ConfigurationError{Source: GlobalConfigurationSourceConstant, Field: field.name, Message: missingRequiredFieldMessageConstant}
		}
		if _, compileError := CompileSkipPattern(field.source); compileError != nil {
			return &ConfigurationError{Source: GlobalConfigurationSourceConstant, Field: field.name, Message: invalidRegexMessageConstant, Cause: compileError}
		}
	}
	return nil
}

// ResolvePipelineFields builds the metadata fields owned by the global and local layers plus the run identity.
// Decisions and capabilities keep their false defaults, package identity is UnknownIdentityConstant and the release
// topology is empty.
func ResolvePipelineFields(layers ConfigurationLayers, runContext RunContext) (PipelineMetadata, error) {
	ciSkipPattern, cdSkipPattern, patternError := resolveSkipPatterns(layers)
	if patternError != nil {
		return PipelineMetadata{}, patternError
	}

	nodeCurrentVersion, nodeTestVersions, webpackTestVersions := resolveToolchainVersions(layers)
	automationPolicy := resolveAutomationPolicy(layers)
	whitelists := resolveWhitelists(layers)

	metadata := PipelineMetadata{
		PackageName:               UnknownIdentityConstant,
		PackageVersion:            UnknownIdentityConstant,
		ReleaseBranchConfig:       []ReleaseBranchRule{},
		CiSkipRegex:               ciSkipPattern,
		CdSkipRegex:               cdSkipPattern,
		NodeCurrentVersion:        nodeCurrentVersion,
		NodeTestVersions:          nodeTestVersions,
		WebpackTestVersions:       webpackTestVersions,
		CommitSha:                 runContext.CommitSha,
		CurrentBranch:             runContext.CurrentBranch(),
		PrNumber:                  copyPullRequestNumber(runContext.PullRequestNumber),
		CanRetryAutomerge:         automationPolicy.canRetryAutomerge,
		CanUploadCoverage:         automationPolicy.canUploadCoverage,
		DebugString:               resolveDebugString(layers),
		Committer:                 resolveCommitter(layers),
		NpmAuditFailLevel:         automationPolicy.npmAuditFailLevel,
		ArtifactRetentionDays:     automationPolicy.artifactRetentionDays,
		RetryCeilingSeconds:       automationPolicy.retryCeilingSeconds,
		ReleaseRepoOwnerWhitelist: whitelists.repositoryOwners,
		ReleaseActorWhitelist:     whitelists.releaseActors,
		AutomergeActorWhitelist:   whitelists.automergeActors,
		NpmIgnoreDistTags:         whitelists.ignoredDistTags,
	}
	return metadata, nil
}

// ApplyPackageFields fills package identity, release topology and capabilities from the manifest and release layers.
func ApplyPackageFields(metadata PipelineMetadata, layers ConfigurationLayers) (PipelineMetadata, error) {
	capabilities, capabilityError := resolveCapabilities(layers)
	if capabilityError != nil {
		return PipelineMetadata{}, capabilityError
	}
	metadata.PackageName, metadata.PackageVersion = resolveIdentity(layers)
	metadata.ReleaseBranchConfig = resolveReleaseTopology(layers)
	metadata.Capabilities = capabilities
	return metadata, nil
}

// resolveSkipPatterns prefers a present local pattern, even an empty one, over the global pattern.
func resolveSkipPatterns(layers ConfigurationLayers) (SkipPattern, SkipPattern, error) {
	ciSkipPattern, ciError := resolveSkipPattern(ciSkipRegexFieldConstant, layers.Local.CiSkipRegex, layers.Global.CiSkipRegex)
	if ciError != nil {
		return SkipPattern{}, SkipPattern{}, ciError
	}
	cdSkipPattern, cdError := resolveSkipPattern(cdSkipRegexFieldConstant, layers.Local.CdSkipRegex, layers.Global.CdSkipRegex)
	if cdError != nil {
		return SkipPattern{}, SkipPattern{}, cdError
	}
	return ciSkipPattern, cdSkipPattern, nil
}

func resolveSkipPattern(field string, localSource Optional[string], globalSource string) (SkipPattern, error) {
	source, sourceLabel := globalSource, GlobalConfigurationSourceConstant
	if localValue, present := localSource.Get(); present {
		source, sourceLabel = localValue, LocalConfigurationSourceConstant
	}
	if len(source) == 0 && sourceLabel == GlobalConfigurationSourceConstant {
		return SkipPattern{}, &ConfigurationError{Source: sourceLabel, Field: field, Message: missingRequiredFieldMessageConstant}
	}
	pattern, compileError := CompileSkipPattern(source)
	if compileError != nil {
		return SkipPattern{}, &ConfigurationError{Source: sourceLabel, Field: field, Message: invalidRegexMessageConstant, Cause: compileError}
	}
	return pattern, nil
}

func resolveToolchainVersions(layers ConfigurationLayers) (string, []string, []string) {
	nodeCurrentVersion := layers.Local.NodeCurrentVersion.OrElse(layers.Global.NodeCurrentVersion)
	nodeTestVersions := copyStrings(layers.Local.NodeTestVersions.OrElse(layers.Global.NodeTestVersions))
	webpackTestVersions := copyStrings(layers.Local.WebpackTestVersions.OrElse(layers.Global.WebpackTestVersions))
	return nodeCurrentVersion, nodeTestVersions, webpackTestVersions
}

func resolveCommitter(layers ConfigurationLayers) CommitterIdentity {
	return CommitterIdentity{
		Name:  layers.Local.Committer.Name.OrElse(layers.Global.Committer.Name),
		Email: layers.Local.Committer.Email.OrElse(layers.Global.Committer.Email),
	}
}

type automationPolicy struct {
	canRetryAutomerge     bool
	canUploadCoverage     bool
	npmAuditFailLevel     string
	artifactRetentionDays int
	retryCeilingSeconds   int
}

// resolveAutomationPolicy honours explicit false and zero local overrides.
func resolveAutomationPolicy(layers ConfigurationLayers) automationPolicy {
	return automationPolicy{
		canRetryAutomerge:     layers.Local.CanRetryAutomerge.OrElse(layers.Global.CanRetryAutomerge),
		canUploadCoverage:     layers.Local.CanUploadCoverage.OrElse(layers.Global.CanUploadCoverage),
		npmAuditFailLevel:     layers.Local.NpmAuditFailLevel.OrElse(layers.Global.NpmAuditFailLevel),
		artifactRetentionDays: layers.Local.ArtifactRetentionDays.OrElse(layers.Global.ArtifactRetentionDays),
		retryCeilingSeconds:   layers.Local.RetryCeilingSeconds.OrElse(layers.Global.RetryCeilingSeconds),
	}
}

type whitelists struct {
	repositoryOwners []string
	releaseActors    []string
	automergeActors  []string
	ignoredDistTags  []string
}

// resolveWhitelists reads the global layer only. Repository owners are lower-cased.
func resolveWhitelists(layers ConfigurationLayers) whitelists {
	repositoryOwners := make([]string, 0, len(layers.Global.ReleaseRepoOwnerWhitelist))
	for _, owner := range layers.Global.ReleaseRepoOwnerWhitelist {
		repositoryOwners = append(repositoryOwners, strings.ToLower(owner))
	}
	return whitelists{
		repositoryOwners: repositoryOwners,
		releaseActors:    copyStrings(layers.Global.ReleaseActorWhitelist),
		automergeActors:  copyStrings(layers.Global.AutomergeActorWhitelist),
		ignoredDistTags:  copyStrings(layers.Global.NpmIgnoreDistTags),
	}
}

// resolveDebugString reads the local layer only; there is no global fallback and an explicit empty string is kept.
func resolveDebugString(layers ConfigurationLayers) Optional[string] {
	return layers.Local.DebugString
}

func resolveIdentity(layers ConfigurationLayers) (string, string) {
	manifest, present := layers.Manifest.Get()
	if !present {
		return UnknownIdentityConstant, UnknownIdentityConstant
	}
	name, version := manifest.Name, manifest.Version
	if len(name) == 0 {
		name = UnknownIdentityConstant
	}
	if len(version) == 0 {
		version = UnknownIdentityConstant
	}
	return name, version
}

func resolveReleaseTopology(layers ConfigurationLayers) []ReleaseBranchRule {
	release, present := layers.Release.Get()
	if !present {
		return []ReleaseBranchRule{}
	}
	return append([]ReleaseBranchRule{}, release.Branches...)
}

func copyStrings(values []string) []string {
	return append(make([]string, 0, len(values)), values...)
}

func copyPullRequestNumber(number *int) *int {
	if number == nil {
		return nil
	}
	copied := *number
	return &copied
}
