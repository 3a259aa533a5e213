package sources

import (
	"context"

	"github.com/temirov/pipegate/internal/metadata"
)

// DefaultLocalConfigurationPath is the per-repository override file, relative to the repository root.
const DefaultLocalConfigurationPath = ".github/pipeline.config.json"

// LocalConfigurationLoader reads the per-repository override file.
type LocalConfigurationLoader struct {
	Path     string
	ReadFile FileReader
}

// Load returns found=false when the file does not exist.
func (loader LocalConfigurationLoader) Load(_ context.Context) (metadata.LocalConfiguration, bool, error) {
	contents, found, readError := readOptionalFile(loader.ReadFile, loader.Path)
	if readError != nil || !found {
		return metadata.LocalConfiguration{}, false, readError
	}

	var local metadata.LocalConfiguration
	if decodeError := decodeCommentedJSON(loader.Path, contents, &local); decodeError != nil {
		return metadata.LocalConfiguration{}, false, decodeError
	}
	return local, true, nil
}

// Location returns the path the loader reads.
func (loader LocalConfigurationLoader) Location() string {
	return loader.Path
}
