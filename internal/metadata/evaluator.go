package metadata

import (
	"slices"
	"strings"
)

const (
	pullRequestSourceConstant        = "run context"
	pullRequestFieldConstant         = "pull_request.number"
	pullRequestNumberMessageConstant = "failed to determine PR number given PR event type"
)

// ValidatePullRequestContext fails for a pull request event that carries no pull request number.
func ValidatePullRequestContext(runContext RunContext) error {
	if !runContext.IsPullRequest() {
		return nil
	}
	if runContext.PullRequestNumber == nil || *runContext.PullRequestNumber == 0 {
		return &ConfigurationError{Source: pullRequestSourceConstant, Field: pullRequestFieldConstant, Message: pullRequestNumberMessageConstant}
	}
	return nil
}

// EvaluateSkips sets ShouldSkipCi and ShouldSkipCd from the commit message. Skipping CI always skips CD.
func EvaluateSkips(metadata PipelineMetadata, commitMessage string) PipelineMetadata {
	metadata.ShouldSkipCi = metadata.CiSkipRegex.MatchString(commitMessage)
	metadata.ShouldSkipCd = metadata.ShouldSkipCi || metadata.CdSkipRegex.MatchString(commitMessage)
	return metadata
}

// ShouldFastSkip reports whether resolution may stop right after the skip decisions.
func ShouldFastSkip(metadata PipelineMetadata, enableFastSkips bool) bool {
	return enableFastSkips && metadata.ShouldSkipCi
}

// EvaluatePermissions sets CanRelease and CanAutomerge.
//
// Releasing requires a whitelisted repository owner (compared case-insensitively), a whitelisted actor and a
// non pull request event. Auto-merging requires a whitelisted actor on a pull request that is not a draft.
func EvaluatePermissions(metadata PipelineMetadata, runContext RunContext) PipelineMetadata {
	metadata.CanRelease = slices.Contains(metadata.ReleaseRepoOwnerWhitelist, strings.ToLower(runContext.RepositoryOwner)) &&
		slices.Contains(metadata.ReleaseActorWhitelist, runContext.Actor) &&
		!runContext.IsPullRequest()
	metadata.CanAutomerge = slices.Contains(metadata.AutomergeActorWhitelist, runContext.Actor) &&
		runContext.IsPullRequest() &&
		!runContext.PullRequestDraft
	return metadata
}
