package sources

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/temirov/pipegate/internal/metadata"
)

const (
	failedToImportMessageConstant = "failed to import"
	failedToParseMessageConstant  = "failed to parse"
)

// FileReader reads a whole file.
type FileReader func(path string) ([]byte, error)

func resolveFileReader(reader FileReader) FileReader {
	if reader == nil {
		return os.ReadFile
	}
	return reader
}

// readOptionalFile returns found=false only when the file does not exist.
func readOptionalFile(reader FileReader, path string) ([]byte, bool, error) {
	contents, readError := resolveFileReader(reader)(path)
	if readError == nil {
		return contents, true, nil
	}
	if errors.Is(readError, fs.ErrNotExist) {
		return nil, false, nil
	}
	return nil, false, &metadata.ConfigurationError{Source: path, Message: failedToImportMessageConstant, Cause: readError}
}

// decodeCommentedJSON accepts JSON with comments and trailing commas.
func decodeCommentedJSON(path string, contents []byte, target any) error {
	if decodeError := json.Unmarshal(jsonc.ToJSON(contents), target); decodeError != nil {
		return &metadata.ConfigurationError{Source: path, Message: failedToParseMessageConstant, Cause: decodeError}
	}
	return nil
}
