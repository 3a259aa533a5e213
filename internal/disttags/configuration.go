package disttags

import (
	"strings"

	"github.com/temirov/pipegate/internal/npm"
	pathutils "github.com/temirov/pipegate/internal/utils/path"
)

var cleanupConfigurationHomeExpander = pathutils.NewHomeExpander()

const defaultNpmTokenSourceConstant = "env:NPM_TOKEN"

// Configuration holds the settings of the cleanup-npm command.
type Configuration struct {
	NpmTokenSource string `mapstructure:"npm_token_source"`
	DryRun         bool   `mapstructure:"dry_run"`
	Concurrency    int    `mapstructure:"concurrency"`
	Remote         string `mapstructure:"remote"`
	NpmrcPath      string `mapstructure:"npmrc_path"`
	Registry       string `mapstructure:"registry"`
}

// DefaultConfiguration mirrors the embedded defaults of the CLI.
func DefaultConfiguration() Configuration {
	return Configuration{
		NpmTokenSource: defaultNpmTokenSourceConstant,
		Concurrency:    defaultConcurrencyConstant,
		Remote:         defaultRemoteConstant,
		NpmrcPath:      npm.DefaultNpmrcPathConstant,
		Registry:       npm.DefaultRegistryConstant,
	}
}

// Sanitize trims values and fills blanks with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.NpmTokenSource = fallback(configuration.NpmTokenSource, defaults.NpmTokenSource)
	sanitized.Remote = fallback(configuration.Remote, defaults.Remote)
	sanitized.Registry = fallback(configuration.Registry, defaults.Registry)
	sanitized.NpmrcPath = cleanupConfigurationHomeExpander.Expand(fallback(configuration.NpmrcPath, defaults.NpmrcPath))
	if sanitized.Concurrency <= 0 {
		sanitized.Concurrency = defaults.Concurrency
	}
	return sanitized
}

// Options derives the per-run cleanup options.
func (configuration Configuration) Options() Options {
	return Options{Remote: configuration.Remote, DryRun: configuration.DryRun, Concurrency: configuration.Concurrency}
}

func fallback(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}
