package globmatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	extendedGroupPrefixesConstant = "?*+@!"
	segmentWildcardConstant       = "[^/]*"
	spanningWildcardConstant      = ".*"
	singleCharacterConstant       = "[^/]"
	groupTerminatorsConstant      = "|)"
	braceTerminatorsConstant      = ",}"
	unexpectedEndTemplate         = "missing %q"
)

var errNegatedGroupUnsupported = errors.New("negated groups !(...) are not supported")

// containsExtendedGroup reports whether pattern uses at least one "?(", "*(", "+(", "@(" or "!(" group.
func containsExtendedGroup(pattern string) bool {
	for index := 0; index+1 < len(pattern); index++ {
		if pattern[index] == '\\' {
			index++
			continue
		}
		if pattern[index+1] == '(' && strings.IndexByte(extendedGroupPrefixesConstant, pattern[index]) >= 0 {
			return true
		}
	}
	return false
}

// compileExtendedPattern translates a glob with extended groups into an anchored RE2 expression.
func compileExtendedPattern(pattern string) (*regexp.Regexp, error) {
	translator := &extendedGlobTranslator{pattern: []rune(pattern)}
	body, _, translateError := translator.sequence("")
	if translateError != nil {
		return nil, translateError
	}
	return regexp.Compile("^" + body + "$")
}

type extendedGlobTranslator struct {
	pattern  []rune
	position int
}

// sequence translates runes until one of terminators is reached at this nesting level. It returns the terminator
// it consumed, or zero at the end of the pattern.
func (translator *extendedGlobTranslator) sequence(terminators string) (string, rune, error) {
	var builder strings.Builder
	for translator.position < len(translator.pattern) {
		current := translator.pattern[translator.position]
		translator.position++

		if strings.ContainsRune(terminators, current) {
			return builder.String(), current, nil
		}

		switch {
		case current == '\\':
			if translator.position < len(translator.pattern) {
				builder.WriteString(regexp.QuoteMeta(string(translator.pattern[translator.position])))
				translator.position++
			} else {
				builder.WriteString(regexp.QuoteMeta(string(current)))
			}
		case strings.ContainsRune(extendedGroupPrefixesConstant, current) && translator.peek() == '(':
			translator.position++
			group, groupError := translator.group(current)
			if groupError != nil {
				return "", 0, groupError
			}
			builder.WriteString(group)
		case current == '*':
			if translator.peek() == '*' {
				translator.position++
				builder.WriteString(spanningWildcardConstant)
			} else {
				builder.WriteString(segmentWildcardConstant)
			}
		case current == '?':
			builder.WriteString(singleCharacterConstant)
		case current == '[':
			class, classError := translator.characterClass()
			if classError != nil {
				return "", 0, classError
			}
			builder.WriteString(class)
		case current == '{':
			alternatives, braceError := translator.alternatives(braceTerminatorsConstant, '}')
			if braceError != nil {
				return "", 0, braceError
			}
			builder.WriteString("(?:" + strings.Join(alternatives, "|") + ")")
		default:
			builder.WriteString(regexp.QuoteMeta(string(current)))
		}
	}
	return builder.String(), 0, nil
}

func (translator *extendedGlobTranslator) peek() rune {
	if translator.position < len(translator.pattern) {
		return translator.pattern[translator.position]
	}
	return 0
}

func (translator *extendedGlobTranslator) group(prefix rune) (string, error) {
	if prefix == '!' {
		return "", errNegatedGroupUnsupported
	}
	alternatives, groupError := translator.alternatives(groupTerminatorsConstant, ')')
	if groupError != nil {
		return "", groupError
	}
	group := "(?:" + strings.Join(alternatives, "|") + ")"
	switch prefix {
	case '?':
		return group + "?", nil
	case '*':
		return group + "*", nil
	case '+':
		return group + "+", nil
	default:
		return group, nil
	}
}

// alternatives reads separator-delimited branches up to closing.
func (translator *extendedGlobTranslator) alternatives(terminators string, closing rune) ([]string, error) {
	alternatives := []string{}
	for {
		alternative, stop, sequenceError := translator.sequence(terminators)
		if sequenceError != nil {
			return nil, sequenceError
		}
		alternatives = append(alternatives, alternative)
		switch stop {
		case closing:
			return alternatives, nil
		case 0:
			return nil, fmt.Errorf(unexpectedEndTemplate, closing)
		}
	}
}

// characterClass translates "[...]" with "!" or "^" negation; the opening bracket is already consumed.
func (translator *extendedGlobTranslator) characterClass() (string, error) {
	var builder strings.Builder
	builder.WriteString("[")
	if next := translator.peek(); next == '!' || next == '^' {
		builder.WriteString("^")
		translator.position++
	}
	first := true
	for translator.position < len(translator.pattern) {
		current := translator.pattern[translator.position]
		translator.position++
		switch {
		case current == ']' && !first:
			builder.WriteString("]")
			return builder.String(), nil
		case current == '\\' && translator.position < len(translator.pattern):
			builder.WriteString(regexp.QuoteMeta(string(translator.pattern[translator.position])))
			translator.position++
		case current == '[' || current == ']' || current == '\\':
			builder.WriteString(`\` + string(current))
		default:
			builder.WriteRune(current)
		}
		first = false
	}
	return "", fmt.Errorf(unexpectedEndTemplate, ']')
}
