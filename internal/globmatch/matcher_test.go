package globmatch_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pipegate/internal/globmatch"
)

func TestMatch(t *testing.T) {
	testCases := []struct {
		name       string
		candidates []string
		patterns   []string
		expected   []string
	}{
		{name: "literal and wildcard", candidates: []string{"main", "canary", "1.x", "feature"}, patterns: []string{"main", "*.x.beta", "canary"}, expected: []string{"main", "canary"}},
		{name: "single star stays in segment", candidates: []string{"release-1", "release/1", "release/1/hotfix"}, patterns: []string{"release*", "release/*"}, expected: []string{"release-1", "release/1"}},
		{name: "double star spans segments", candidates: []string{"release/1/hotfix", "feature/x"}, patterns: []string{"release/**"}, expected: []string{"release/1/hotfix"}},
		{name: "braces and classes", candidates: []string{"1.x", "2.x", "3.x", "next"}, patterns: []string{"{1,3}.x", "[n]ext"}, expected: []string{"1.x", "3.x", "next"}},
		{name: "question mark", candidates: []string{"v1", "v10"}, patterns: []string{"v?"}, expected: []string{"v1"}},
		{name: "candidate order preserved across patterns", candidates: []string{"b", "a", "c"}, patterns: []string{"c", "a", "b"}, expected: []string{"b", "a", "c"}},
		{name: "duplicates removed", candidates: []string{"main", "main", "next"}, patterns: []string{"main", "m*"}, expected: []string{"main"}},
		{name: "empty patterns match nothing", candidates: []string{"main"}, patterns: nil, expected: []string{}},
		{name: "empty pattern string ignored", candidates: []string{"main"}, patterns: []string{""}, expected: []string{}},
		{name: "malformed pattern never matches", candidates: []string{"main", "[main"}, patterns: []string{"[main"}, expected: []string{}},
		{name: "no candidates", candidates: nil, patterns: []string{"*"}, expected: []string{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, globmatch.Match(testCase.candidates, testCase.patterns))
		})
	}
}

func TestMatchesAny(t *testing.T) {
	require.True(t, globmatch.MatchesAny("release-2.x", []string{"main", "release-*"}))
	require.False(t, globmatch.MatchesAny("feature", []string{"main", "release-*"}))
}

func TestCompileExtendedGroups(t *testing.T) {
	testCases := []struct {
		name       string
		patterns   []string
		candidates []string
		expected   []string
	}{
		{name: "maintenance rule", patterns: []string{"+([0-9])?(.{+([0-9]),x}).x"}, candidates: []string{"main", "1.x", "2.3.x", "10.x", "1.2", "x.x", "release-1.x"}, expected: []string{"1.x", "2.3.x", "10.x"}},
		{name: "prefixed maintenance rule", patterns: []string{"release-+([0-9]).x"}, candidates: []string{"release-1.x", "release-12.x", "release-.x"}, expected: []string{"release-1.x", "release-12.x"}},
		{name: "optional group", patterns: []string{"v?(1|2)"}, candidates: []string{"v", "v1", "v2", "v12"}, expected: []string{"v", "v1", "v2"}},
		{name: "zero or more group", patterns: []string{"a*(b)c"}, candidates: []string{"ac", "abc", "abbc", "adc"}, expected: []string{"ac", "abc", "abbc"}},
		{name: "exactly one group", patterns: []string{"@(next|beta)"}, candidates: []string{"next", "beta", "nextbeta"}, expected: []string{"next", "beta"}},
		{name: "wildcards beside a group stay in segment", patterns: []string{"@(release|hotfix)/*"}, candidates: []string{"release/1", "hotfix/2", "release/1/x"}, expected: []string{"release/1", "hotfix/2"}},
		{name: "mixed with plain patterns", patterns: []string{"main", "+([0-9]).x"}, candidates: []string{"main", "3.x", "next"}, expected: []string{"main", "3.x"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			matcher, compileError := globmatch.Compile(testCase.patterns)
			require.NoError(t, compileError)
			require.Equal(t, testCase.expected, matcher.Match(testCase.candidates))
			require.Equal(t, testCase.expected, globmatch.Match(testCase.candidates, testCase.patterns))
		})
	}
}

func TestCompileRejectsUnmatchablePatterns(t *testing.T) {
	testCases := []struct {
		name    string
		pattern string
	}{
		{name: "empty", pattern: ""},
		{name: "unclosed class", pattern: "[main"},
		{name: "unclosed group", pattern: "+([0-9]"},
		{name: "unclosed brace inside group", pattern: "@(a|{b)"},
		{name: "negated group", pattern: "!(main)"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			matcher, compileError := globmatch.Compile([]string{"main", testCase.pattern})
			require.Nil(t, matcher)
			var patternError *globmatch.PatternError
			require.True(t, errors.As(compileError, &patternError))
			require.Equal(t, testCase.pattern, patternError.Pattern)
		})
	}
}
