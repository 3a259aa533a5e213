package metadata_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/pipegate/internal/metadata"
)

func TestReleaseBranchRuleDecoding(testInstance *testing.T) {
	testCases := []struct {
		name          string
		jsonPayload   string
		yamlPayload   string
		expectedRules []metadata.ReleaseBranchRule
	}{
		{
			name:          "strings are plain rules",
			jsonPayload:   `{"branches":["main","+([0-9])?(.{+([0-9]),x}).x"]}`,
			yamlPayload:   "branches:\n  - main\n  - '+([0-9])?(.{+([0-9]),x}).x'\n",
			expectedRules: []metadata.ReleaseBranchRule{metadata.PlainRule("main"), metadata.PlainRule("+([0-9])?(.{+([0-9]),x}).x")},
		},
		{
			name:          "objects with string channel are channeled",
			jsonPayload:   `{"branches":[{"name":"canary","channel":"canary","prerelease":true}]}`,
			yamlPayload:   "branches:\n  - name: canary\n    channel: canary\n    prerelease: true\n",
			expectedRules: []metadata.ReleaseBranchRule{metadata.ChanneledRule("canary", "canary")},
		},
		{
			name:          "objects without string channel are plain",
			jsonPayload:   `{"branches":[{"name":"next"},{"name":"beta","channel":false}]}`,
			yamlPayload:   "branches:\n  - name: next\n  - name: beta\n    channel: false\n",
			expectedRules: []metadata.ReleaseBranchRule{metadata.PlainRule("next"), metadata.PlainRule("beta")},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var fromJSON metadata.ReleaseChannels
			require.NoError(testInstance, json.Unmarshal([]byte(testCase.jsonPayload), &fromJSON))
			require.Equal(testInstance, testCase.expectedRules, fromJSON.Branches)

			var fromYAML metadata.ReleaseChannels
			require.NoError(testInstance, yaml.Unmarshal([]byte(testCase.yamlPayload), &fromYAML))
			require.Equal(testInstance, testCase.expectedRules, fromYAML.Branches)
		})
	}
}

func TestReleaseBranchRuleRejectsMissingName(testInstance *testing.T) {
	var channels metadata.ReleaseChannels
	require.ErrorIs(testInstance, json.Unmarshal([]byte(`{"branches":[{"channel":"x"}]}`), &channels), metadata.ErrReleaseRuleMissingName)
	require.Error(testInstance, json.Unmarshal([]byte(`{"branches":[42]}`), &channels))
	require.Error(testInstance, yaml.Unmarshal([]byte("branches:\n  - [a, b]\n"), &channels))
}

func TestReleaseBranchRuleEncoding(testInstance *testing.T) {
	encoded, marshalError := json.Marshal([]metadata.ReleaseBranchRule{metadata.PlainRule("main"), metadata.ChanneledRule("canary", "next")})
	require.NoError(testInstance, marshalError)
	require.JSONEq(testInstance, `["main",{"name":"canary","channel":"next"}]`, string(encoded))
}

func TestPinnedChannelsAndPatterns(testInstance *testing.T) {
	rules := []metadata.ReleaseBranchRule{
		metadata.PlainRule("main"),
		metadata.ChanneledRule("canary", "canary"),
		metadata.ChanneledRule("alpha", "canary"),
		metadata.ChanneledRule("next", "next"),
	}
	require.Equal(testInstance, []string{"canary", "next"}, metadata.PinnedChannels(rules))
	require.Equal(testInstance, []string{"main", "canary", "alpha", "next"}, metadata.RulePatterns(rules))
	require.Empty(testInstance, metadata.PinnedChannels(nil))
}
