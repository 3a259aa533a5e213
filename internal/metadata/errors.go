package metadata

import "strings"

const configurationErrorSeparatorConstant = ": "

// ConfigurationError is a fatal problem with a configuration source: a missing required option, an unreachable or
// malformed source, or an inconsistent declaration. Source names the file, URI, or option group; Field names the
// offending field when one applies.
type ConfigurationError struct {
	Source  string
	Field   string
	Message string
	Cause   error
}

func (configurationError *ConfigurationError) Error() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{configurationError.Source, configurationError.Field, configurationError.Message} {
		if len(part) > 0 {
			parts = append(parts, part)
		}
	}
	if configurationError.Cause != nil {
		parts = append(parts, configurationError.Cause.Error())
	}
	return strings.Join(parts, configurationErrorSeparatorConstant)
}

// Unwrap exposes the underlying cause.
func (configurationError *ConfigurationError) Unwrap() error {
	return configurationError.Cause
}
