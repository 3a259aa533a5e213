package collect

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/pipegate/internal/artifacts"
	"github.com/temirov/pipegate/internal/sources"
	pathutils "github.com/temirov/pipegate/internal/utils/path"
)

var collectConfigurationHomeExpander = pathutils.NewHomeExpander()

const (
	defaultGlobalConfigTimeout    = 30 * time.Second
	defaultRepositoryPathConstant = "."
	defaultCheckoutDepthConstant  = 1
	defaultGitHubTokenSource      = "env:GITHUB_TOKEN"
	defaultArtifactDirectory      = ".pipegate/artifacts"
)

// Configuration holds the settings of the metadata collector.
type Configuration struct {
	GlobalConfigURI         string        `mapstructure:"global_config_uri"`
	GlobalConfigTimeout     time.Duration `mapstructure:"global_config_timeout"`
	GlobalConfigTokenSource string        `mapstructure:"global_config_token_source"`
	RepositoryPath          string        `mapstructure:"repository_path"`
	LocalConfigPath         string        `mapstructure:"local_config_path"`
	ManifestPath            string        `mapstructure:"manifest_path"`
	ReleaseConfigPath       string        `mapstructure:"release_config_path"`
	DotenvPath              string        `mapstructure:"dotenv_path"`
	Checkout                bool          `mapstructure:"checkout"`
	CheckoutDepth           int           `mapstructure:"checkout_depth"`
	GitHubTokenSource       string        `mapstructure:"github_token_source"`
	EnableFastSkips         bool          `mapstructure:"enable_fast_skips"`
	UploadArtifact          bool          `mapstructure:"upload_artifact"`
	ArtifactDirectory       string        `mapstructure:"artifact_directory"`
	ArtifactCodec           string        `mapstructure:"artifact_codec"`
	ForceWarnings           bool          `mapstructure:"force_warnings"`
	ExportEnvironment       bool          `mapstructure:"export_environment"`
}

// DefaultConfiguration mirrors the embedded defaults of the CLI.
func DefaultConfiguration() Configuration {
	return Configuration{
		GlobalConfigTimeout: defaultGlobalConfigTimeout,
		RepositoryPath:      defaultRepositoryPathConstant,
		LocalConfigPath:     sources.DefaultLocalConfigurationPath,
		ManifestPath:        sources.DefaultManifestPath,
		ReleaseConfigPath:   sources.DefaultReleaseConfigurationPath,
		CheckoutDepth:       defaultCheckoutDepthConstant,
		GitHubTokenSource:   defaultGitHubTokenSource,
		EnableFastSkips:     true,
		ArtifactDirectory:   defaultArtifactDirectory,
		ArtifactCodec:       artifacts.CodecNameJSON,
		ExportEnvironment:   true,
	}
}

// Sanitize trims values, fills blanks with defaults, expands "~" and anchors relative source paths at the
// repository path.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.GlobalConfigURI = strings.TrimSpace(configuration.GlobalConfigURI)
	sanitized.GlobalConfigTokenSource = strings.TrimSpace(configuration.GlobalConfigTokenSource)
	sanitized.GitHubTokenSource = strings.TrimSpace(configuration.GitHubTokenSource)
	sanitized.ArtifactCodec = strings.ToLower(strings.TrimSpace(configuration.ArtifactCodec))
	if len(sanitized.ArtifactCodec) == 0 {
		sanitized.ArtifactCodec = defaults.ArtifactCodec
	}
	if sanitized.GlobalConfigTimeout <= 0 {
		sanitized.GlobalConfigTimeout = defaults.GlobalConfigTimeout
	}
	if sanitized.CheckoutDepth <= 0 {
		sanitized.CheckoutDepth = defaults.CheckoutDepth
	}

	sanitized.RepositoryPath = sanitizePath(configuration.RepositoryPath, defaults.RepositoryPath)
	sanitized.LocalConfigPath = anchorPath(sanitized.RepositoryPath, sanitizePath(configuration.LocalConfigPath, defaults.LocalConfigPath))
	sanitized.ManifestPath = anchorPath(sanitized.RepositoryPath, sanitizePath(configuration.ManifestPath, defaults.ManifestPath))
	sanitized.ReleaseConfigPath = anchorPath(sanitized.RepositoryPath, sanitizePath(configuration.ReleaseConfigPath, defaults.ReleaseConfigPath))
	sanitized.ArtifactDirectory = sanitizePath(configuration.ArtifactDirectory, defaults.ArtifactDirectory)
	if trimmedDotenv := strings.TrimSpace(configuration.DotenvPath); len(trimmedDotenv) > 0 {
		sanitized.DotenvPath = collectConfigurationHomeExpander.Expand(trimmedDotenv)
	}
	return sanitized
}

// Options derives the per-run collection options.
func (configuration Configuration) Options() Options {
	return Options{
		EnableFastSkips: configuration.EnableFastSkips,
		UploadArtifact:  configuration.UploadArtifact,
		ForceWarnings:   configuration.ForceWarnings,
	}
}

func sanitizePath(candidate string, fallback string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		trimmed = fallback
	}
	return collectConfigurationHomeExpander.Expand(trimmed)
}

func anchorPath(root string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
