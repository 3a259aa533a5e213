package metadata

import (
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	releaseRuleMissingNameMessageConstant = "release branch rule requires a non-empty name"
	releaseRuleShapeMessageConstant       = "release branch rule must be a string or an object with a name"
)

var (
	// ErrReleaseRuleMissingName indicates an object rule without a usable name.
	ErrReleaseRuleMissingName = errors.New(releaseRuleMissingNameMessageConstant)
	// ErrReleaseRuleShape indicates a rule that is neither a string nor an object.
	ErrReleaseRuleShape = errors.New(releaseRuleShapeMessageConstant)
)

// ReleaseBranchRule is one entry of the release topology: a branch name pattern, optionally pinned to a
// distribution channel. Plain rules never yield a channel.
type ReleaseBranchRule struct {
	pattern   string
	channel   string
	channeled bool
}

// PlainRule constructs a rule without a channel.
func PlainRule(pattern string) ReleaseBranchRule {
	return ReleaseBranchRule{pattern: pattern}
}

// ChanneledRule constructs a rule that publishes to channel.
func ChanneledRule(pattern string, channel string) ReleaseBranchRule {
	return ReleaseBranchRule{pattern: pattern, channel: channel, channeled: true}
}

// Pattern returns the branch name pattern.
func (rule ReleaseBranchRule) Pattern() string {
	return rule.pattern
}

// Channel returns the pinned channel of a channeled rule.
func (rule ReleaseBranchRule) Channel() (string, bool) {
	return rule.channel, rule.channeled
}

type releaseRuleDocument struct {
	Name    string `json:"name" yaml:"name"`
	Channel any    `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// MarshalJSON encodes plain rules as strings and channeled rules as {"name", "channel"} objects.
func (rule ReleaseBranchRule) MarshalJSON() ([]byte, error) {
	if !rule.channeled {
		return json.Marshal(rule.pattern)
	}
	return json.Marshal(releaseRuleDocument{Name: rule.pattern, Channel: rule.channel})
}

// UnmarshalJSON accepts either a bare pattern string or an object with a name and an optional channel.
func (rule *ReleaseBranchRule) UnmarshalJSON(data []byte) error {
	var pattern string
	if json.Unmarshal(data, &pattern) == nil {
		return rule.assignPattern(pattern)
	}
	var document releaseRuleDocument
	if decodeError := json.Unmarshal(data, &document); decodeError != nil {
		return ErrReleaseRuleShape
	}
	return rule.assignDocument(document)
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML release declarations.
func (rule *ReleaseBranchRule) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return rule.assignPattern(node.Value)
	case yaml.MappingNode:
		var document releaseRuleDocument
		if decodeError := node.Decode(&document); decodeError != nil {
			return decodeError
		}
		return rule.assignDocument(document)
	default:
		return ErrReleaseRuleShape
	}
}

func (rule *ReleaseBranchRule) assignPattern(pattern string) error {
	if len(strings.TrimSpace(pattern)) == 0 {
		return ErrReleaseRuleMissingName
	}
	*rule = PlainRule(pattern)
	return nil
}

// assignDocument treats a non-string channel (absent, false, a number) as no channel.
func (rule *ReleaseBranchRule) assignDocument(document releaseRuleDocument) error {
	if len(strings.TrimSpace(document.Name)) == 0 {
		return ErrReleaseRuleMissingName
	}
	if channel, isString := document.Channel.(string); isString {
		*rule = ChanneledRule(document.Name, channel)
		return nil
	}
	*rule = PlainRule(document.Name)
	return nil
}

// RulePatterns returns the pattern of every rule in order.
func RulePatterns(rules []ReleaseBranchRule) []string {
	patterns := make([]string, 0, len(rules))
	for _, rule := range rules {
		patterns = append(patterns, rule.pattern)
	}
	return patterns
}

// PinnedChannels returns the channels of channeled rules in order, without duplicates.
func PinnedChannels(rules []ReleaseBranchRule) []string {
	channels := make([]string, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		channel, channeled := rule.Channel()
		if !channeled {
			continue
		}
		if _, duplicate := seen[channel]; duplicate {
			continue
		}
		seen[channel] = struct{}{}
		channels = append(channels, channel)
	}
	return channels
}
