package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue      = "true"
	toggleFalseCanonicalValue     = "false"
	toggleTypeNameConstant        = "bool"
	toggleParseErrorTemplate      = "invalid toggle value %q"
	toggleUsageTemplate           = "`%s` %s"
	toggleTruePlaceholderLiteral  = "<YES|no>"
	toggleFalsePlaceholderLiteral = "<yes|NO>"
	longFlagPrefixConstant        = "--"
	shortFlagPrefixConstant       = "-"
	flagValueSeparatorConstant    = "="
)

var toggleLiterals = map[string]bool{
	"true": true, "yes": true, "on": true, "1": true, "t": true, "y": true,
	"false": false, "no": false, "off": false, "0": false, "f": false, "n": false,
}

var toggleRegistry = struct {
	sync.RWMutex
	names map[string]struct{}
}{names: map[string]struct{}{}}

// AddToggleFlag registers a boolean flag accepting yes/no style values, both as "--name=value" and "--name value"
// once the arguments pass through NormalizeToggleArguments.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleValue{target: target}
	value.store(defaultValue)
	flagSet.VarP(value, name, shorthand, usage)

	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	placeholder := toggleFalsePlaceholderLiteral
	if defaultValue {
		placeholder = toggleTruePlaceholderLiteral
	}
	flag.Usage = strings.TrimSpace(fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(usage)))

	toggleRegistry.Lock()
	toggleRegistry.names[longFlagPrefixConstant+name] = struct{}{}
	if len(shorthand) > 0 {
		toggleRegistry.names[shortFlagPrefixConstant+shorthand] = struct{}{}
	}
	toggleRegistry.Unlock()
}

// NormalizeToggleArguments joins a registered toggle flag with a following value so pflag parses "--flag no".
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			return append(normalized, arguments[index:]...)
		}
		if isRegisteredToggle(current) && index+1 < len(arguments) && isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func isRegisteredToggle(argument string) bool {
	if !strings.HasPrefix(argument, shortFlagPrefixConstant) || strings.Contains(argument, flagValueSeparatorConstant) {
		return false
	}
	toggleRegistry.RLock()
	defer toggleRegistry.RUnlock()
	_, registered := toggleRegistry.names[argument]
	return registered
}

func isToggleLiteral(candidate string) bool {
	if strings.HasPrefix(candidate, shortFlagPrefixConstant) {
		return false
	}
	_, known := toggleLiterals[strings.ToLower(strings.TrimSpace(candidate))]
	return known
}

type toggleValue struct {
	current bool
	target  *bool
}

func (value *toggleValue) store(parsed bool) {
	value.current = parsed
	if value.target != nil {
		*value.target = parsed
	}
}

func (value *toggleValue) Set(rawValue string) error {
	trimmed := strings.ToLower(strings.TrimSpace(rawValue))
	if len(trimmed) == 0 {
		trimmed = toggleTrueCanonicalValue
	}
	parsed, known := toggleLiterals[trimmed]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	value.store(parsed)
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.current {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}
