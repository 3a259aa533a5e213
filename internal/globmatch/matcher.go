// Package globmatch filters names such as branch names against shell-style glob
// patterns.
//
// Patterns follow doublestar semantics: "*" matches within one "/"-separated
// segment, "**" spans segments, "?" matches one character, and "[...]" and
// "{a,b}" behave as in the shell. Patterns that use extended glob groups
// ("?(a|b)", "*(a|b)", "+(a|b)", "@(a|b)") are compiled to regular expressions,
// so semantic-release maintenance rules such as "+([0-9])?(.{+([0-9]),x}).x"
// match the way release tooling expects.
package globmatch

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	emptyPatternMessageConstant     = "pattern must not be empty"
	malformedPatternMessageConstant = "malformed glob pattern"
	patternErrorTemplateConstant    = "%q: %s"
	patternCauseTemplateConstant    = "%q: %s: %v"
)

// PatternError reports a pattern that cannot be matched reliably.
type PatternError struct {
	Pattern string
	Message string
	Cause   error
}

func (patternError *PatternError) Error() string {
	if patternError.Cause != nil {
		return fmt.Sprintf(patternCauseTemplateConstant, patternError.Pattern, patternError.Message, patternError.Cause)
	}
	return fmt.Sprintf(patternErrorTemplateConstant, patternError.Pattern, patternError.Message)
}

// Unwrap exposes the underlying cause.
func (patternError *PatternError) Unwrap() error {
	return patternError.Cause
}

type compiledPattern struct {
	source     string
	expression *regexp.Regexp
}

func (pattern compiledPattern) matches(candidate string) bool {
	if pattern.expression != nil {
		return pattern.expression.MatchString(candidate)
	}
	isMatch, matchError := doublestar.Match(pattern.source, candidate)
	return matchError == nil && isMatch
}

// Matcher is a validated set of patterns.
type Matcher struct {
	patterns []compiledPattern
}

// Compile validates every pattern. Empty and malformed patterns are rejected with a *PatternError so callers that
// rely on a match to protect something never silently lose that protection.
func Compile(patterns []string) (*Matcher, error) {
	matcher := &Matcher{patterns: make([]compiledPattern, 0, len(patterns))}
	for _, pattern := range patterns {
		compiled, compileError := compilePattern(pattern)
		if compileError != nil {
			return nil, compileError
		}
		matcher.patterns = append(matcher.patterns, compiled)
	}
	return matcher, nil
}

func compilePattern(pattern string) (compiledPattern, error) {
	if len(pattern) == 0 {
		return compiledPattern{}, &PatternError{Pattern: pattern, Message: emptyPatternMessageConstant}
	}
	if containsExtendedGroup(pattern) {
		expression, translateError := compileExtendedPattern(pattern)
		if translateError != nil {
			return compiledPattern{}, &PatternError{Pattern: pattern, Message: malformedPatternMessageConstant, Cause: translateError}
		}
		return compiledPattern{source: pattern, expression: expression}, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return compiledPattern{}, &PatternError{Pattern: pattern, Message: malformedPatternMessageConstant}
	}
	return compiledPattern{source: pattern}, nil
}

// Match returns the candidates matched by at least one pattern, in candidate order and without duplicates.
func (matcher *Matcher) Match(candidates []string) []string {
	matched := make([]string, 0, len(candidates))
	if matcher == nil || len(matcher.patterns) == 0 {
		return matched
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, duplicate := seen[candidate]; duplicate {
			continue
		}
		if matcher.MatchesAny(candidate) {
			seen[candidate] = struct{}{}
			matched = append(matched, candidate)
		}
	}
	return matched
}

// MatchesAny reports whether candidate matches at least one pattern.
func (matcher *Matcher) MatchesAny(candidate string) bool {
	if matcher == nil {
		return false
	}
	for _, pattern := range matcher.patterns {
		if pattern.matches(candidate) {
			return true
		}
	}
	return false
}

// Match returns the candidates matched by at least one pattern, in candidate order and without duplicates.
// An empty pattern list matches nothing; malformed patterns are skipped. Use Compile when a malformed pattern
// must be reported instead.
func Match(candidates []string, patterns []string) []string {
	return (&Matcher{patterns: validPatterns(patterns)}).Match(candidates)
}

// MatchesAny reports whether candidate matches at least one well-formed pattern.
func MatchesAny(candidate string, patterns []string) bool {
	return (&Matcher{patterns: validPatterns(patterns)}).MatchesAny(candidate)
}

func validPatterns(patterns []string) []compiledPattern {
	valid := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		if compiled, compileError := compilePattern(pattern); compileError == nil {
			valid = append(valid, compiled)
		}
	}
	return valid
}
