package metadata

import (
	"encoding/json"
	"regexp"
	"strings"
)

const (
	regexLiteralDelimiterConstant = "/"
	regexLiteralFlagsConstant     = "dgimsuvy"
	regexSupportedFlagsConstant   = "ims"
)

// SkipPattern is a compiled commit-message pattern that remembers its source text.
//
// Sources may be plain RE2 expressions or regular-expression literals such as "/\[skip ci\]/i"; the i, m and s
// flags of a literal are honoured and the remaining literal flags are ignored.
type SkipPattern struct {
	source     string
	expression *regexp.Regexp
}

// CompileSkipPattern parses source into a SkipPattern.
func CompileSkipPattern(source string) (SkipPattern, error) {
	expression, compileError := regexp.Compile(translateRegexLiteral(source))
	if compileError != nil {
		return SkipPattern{}, compileError
	}
	return SkipPattern{source: source, expression: expression}, nil
}

// MustCompileSkipPattern is CompileSkipPattern for known-good sources; it panics on error.
func MustCompileSkipPattern(source string) SkipPattern {
	pattern, compileError := CompileSkipPattern(source)
	if compileError != nil {
		panic(compileError)
	}
	return pattern
}

// MatchString reports whether message matches. The zero SkipPattern matches nothing.
func (pattern SkipPattern) MatchString(message string) bool {
	if pattern.expression == nil {
		return false
	}
	return pattern.expression.MatchString(message)
}

// String returns the source text.
func (pattern SkipPattern) String() string {
	return pattern.source
}

// MarshalJSON encodes the source text.
func (pattern SkipPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(pattern.source)
}

// UnmarshalJSON compiles the decoded source text.
func (pattern *SkipPattern) UnmarshalJSON(data []byte) error {
	var source string
	if decodeError := json.Unmarshal(data, &source); decodeError != nil {
		return decodeError
	}
	compiled, compileError := CompileSkipPattern(source)
	if compileError != nil {
		return compileError
	}
	*pattern = compiled
	return nil
}

func translateRegexLiteral(source string) string {
	if len(source) < 2 || !strings.HasPrefix(source, regexLiteralDelimiterConstant) {
		return source
	}
	closingIndex := strings.LastIndex(source, regexLiteralDelimiterConstant)
	if closingIndex == 0 {
		return source
	}
	flags := source[closingIndex+1:]
	if strings.Trim(flags, regexLiteralFlagsConstant) != "" {
		return source
	}

	body := source[1:closingIndex]
	var supportedFlags strings.Builder
	for _, flag := range flags {
		if strings.ContainsRune(regexSupportedFlagsConstant, flag) && !strings.ContainsRune(supportedFlags.String(), flag) {
			supportedFlags.WriteRune(flag)
		}
	}
	if supportedFlags.Len() == 0 {
		return body
	}
	return "(?" + supportedFlags.String() + ")" + body
}
