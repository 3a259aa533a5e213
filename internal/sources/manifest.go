package sources

import (
	"context"

	"github.com/temirov/pipegate/internal/metadata"
)

// DefaultManifestPath is the package manifest, relative to the repository root.
const DefaultManifestPath = "package.json"

// ManifestLoader reads the package manifest.
type ManifestLoader struct {
	Path     string
	ReadFile FileReader
}

// Load returns found=false when the manifest does not exist; the caller decides whether that is fatal.
func (loader ManifestLoader) Load(_ context.Context) (metadata.Manifest, bool, error) {
	contents, found, readError := readOptionalFile(loader.ReadFile, loader.Path)
	if readError != nil || !found {
		return metadata.Manifest{}, false, readError
	}

	var manifest metadata.Manifest
	if decodeError := decodeCommentedJSON(loader.Path, contents, &manifest); decodeError != nil {
		return metadata.Manifest{}, false, decodeError
	}
	return manifest, true, nil
}

// Location returns the path the loader reads.
func (loader ManifestLoader) Location() string {
	return loader.Path
}
