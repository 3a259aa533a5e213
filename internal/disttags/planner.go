package disttags

import (
	"slices"

	"github.com/temirov/pipegate/internal/globmatch"
	"github.com/temirov/pipegate/internal/metadata"
)

const (
	releaseTagPrefixConstant      = "release-"
	releaseRulesSourceConstant    = "release branch rules"
	unmatchableReleaseRuleMessage = "pattern cannot be matched, refusing to plan dist-tag pruning"
)

// PlanInput is the live state a plan is computed from.
type PlanInput struct {
	RemoteBranches []string
	PublishedTags  []string
	Rules          []metadata.ReleaseBranchRule
	IgnoredTags    []string
}

// Plan explains which published tags are kept and which are pruning candidates.
type Plan struct {
	// ReleaseBranches are the remote branches matched by any rule, in branch order.
	ReleaseBranches []string
	// PinnedChannels are the channels of channeled rules.
	PinnedChannels []string
	Candidates     []string
}

// ComputePlan is a pure function of input. A published tag is a candidate only when it is not a pinned channel,
// not ignored, and neither equal to a release branch nor to "release-" followed by one. Any rule pattern that
// cannot be matched yields a *metadata.ConfigurationError and no plan.
func ComputePlan(input PlanInput) (Plan, error) {
	matcher, compileError := globmatch.Compile(metadata.RulePatterns(input.Rules))
	if compileError != nil {
		return Plan{}, &metadata.ConfigurationError{Source: releaseRulesSourceConstant, Message: unmatchableReleaseRuleMessage, Cause: compileError}
	}
	releaseBranches := matcher.Match(input.RemoteBranches)
	pinnedChannels := metadata.PinnedChannels(input.Rules)

	protected := make(map[string]struct{}, len(pinnedChannels)+len(input.IgnoredTags)+2*len(releaseBranches))
	for _, channel := range pinnedChannels {
		protected[channel] = struct{}{}
	}
	for _, ignored := range input.IgnoredTags {
		protected[ignored] = struct{}{}
	}
	for _, branch := range releaseBranches {
		protected[branch] = struct{}{}
		protected[releaseTagPrefixConstant+branch] = struct{}{}
	}

	candidates := []string{}
	for _, tag := range input.PublishedTags {
		if _, isProtected := protected[tag]; isProtected || slices.Contains(candidates, tag) {
			continue
		}
		candidates = append(candidates, tag)
	}

	return Plan{ReleaseBranches: releaseBranches, PinnedChannels: pinnedChannels, Candidates: candidates}, nil
}
