package npm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pathutils "github.com/temirov/pipegate/internal/utils/path"
)

const (
	// DefaultNpmrcPathConstant is the per-user npm configuration file.
	DefaultNpmrcPathConstant = "~/.npmrc"
	// DefaultRegistryConstant is the registry the auth token is scoped to.
	DefaultRegistryConstant = "//registry.npmjs.org/"

	authTokenKeySuffixConstant = ":_authToken="
	npmrcLineSeparatorConstant = "\n"
	npmrcFileModeConstant      = 0o600
	npmrcDirectoryModeConstant = 0o755
	readNpmrcTemplateConstant  = "failed to read %s: %w"
	writeNpmrcTemplateConstant = "failed to write %s: %w"
)

// ErrEmptyAuthToken indicates an attempt to write a blank token.
var ErrEmptyAuthToken = errors.New("npm auth token must not be empty")

// NpmrcWriter maintains the registry auth line in an .npmrc file, replacing an existing line for the same
// registry and preserving every other line.
type NpmrcWriter struct {
	Path     string
	Registry string
	Expander *pathutils.HomeExpander
}

// WriteAuthToken writes "<registry>:_authToken=<token>".
func (writer NpmrcWriter) WriteAuthToken(_ context.Context, token string) error {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return ErrEmptyAuthToken
	}

	path := writer.resolvedPath()
	existing, readError := os.ReadFile(path)
	if readError != nil && !errors.Is(readError, fs.ErrNotExist) {
		return fmt.Errorf(readNpmrcTemplateConstant, path, readError)
	}

	keyPrefix := writer.resolvedRegistry() + authTokenKeySuffixConstant
	lines := []string{}
	for _, line := range strings.Split(string(existing), npmrcLineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 || strings.HasPrefix(strings.TrimSpace(line), keyPrefix) {
			continue
		}
		lines = append(lines, line)
	}
	lines = append(lines, keyPrefix+trimmedToken)

	if mkdirError := os.MkdirAll(filepath.Dir(path), npmrcDirectoryModeConstant); mkdirError != nil {
		return fmt.Errorf(writeNpmrcTemplateConstant, path, mkdirError)
	}
	contents := strings.Join(lines, npmrcLineSeparatorConstant) + npmrcLineSeparatorConstant
	if writeError := os.WriteFile(path, []byte(contents), npmrcFileModeConstant); writeError != nil {
		return fmt.Errorf(writeNpmrcTemplateConstant, path, writeError)
	}
	return nil
}

func (writer NpmrcWriter) resolvedPath() string {
	path := writer.Path
	if len(strings.TrimSpace(path)) == 0 {
		path = DefaultNpmrcPathConstant
	}
	expander := writer.Expander
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}
	return expander.Expand(path)
}

func (writer NpmrcWriter) resolvedRegistry() string {
	if len(strings.TrimSpace(writer.Registry)) == 0 {
		return DefaultRegistryConstant
	}
	return writer.Registry
}
