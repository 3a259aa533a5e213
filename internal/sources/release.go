package sources

import (
	"context"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/pipegate/internal/metadata"
)

// DefaultReleaseConfigurationPath is the release-channel declaration, relative to the repository root.
const DefaultReleaseConfigurationPath = "release.config.json"

var yamlExtensions = map[string]struct{}{".yaml": {}, ".yml": {}}

// ReleaseChannelsLoader reads the release-channel declaration. Files ending in .yaml or .yml are parsed as YAML,
// everything else as JSON with comments.
type ReleaseChannelsLoader struct {
	Path     string
	ReadFile FileReader
}

// Load returns found=false when the declaration does not exist.
func (loader ReleaseChannelsLoader) Load(_ context.Context) (metadata.ReleaseChannels, bool, error) {
	contents, found, readError := readOptionalFile(loader.ReadFile, loader.Path)
	if readError != nil || !found {
		return metadata.ReleaseChannels{}, false, readError
	}

	var channels metadata.ReleaseChannels
	if _, isYAML := yamlExtensions[strings.ToLower(filepath.Ext(loader.Path))]; isYAML {
		if decodeError := yaml.Unmarshal(contents, &channels); decodeError != nil {
			return metadata.ReleaseChannels{}, false, &metadata.ConfigurationError{Source: loader.Path, Message: failedToParseMessageConstant, Cause: decodeError}
		}
		return channels, true, nil
	}

	if decodeError := decodeCommentedJSON(loader.Path, contents, &channels); decodeError != nil {
		return metadata.ReleaseChannels{}, false, decodeError
	}
	return channels, true, nil
}

// Location returns the path the loader reads.
func (loader ReleaseChannelsLoader) Location() string {
	return loader.Path
}
