package collect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/pipegate/internal/metadata"
)

// Variables exported for later steps of the job.
const (
	GitAuthorNameVariableConstant     = "GIT_AUTHOR_NAME"
	GitAuthorEmailVariableConstant    = "GIT_AUTHOR_EMAIL"
	GitCommitterNameVariableConstant  = "GIT_COMMITTER_NAME"
	GitCommitterEmailVariableConstant = "GIT_COMMITTER_EMAIL"
	DebugVariableConstant             = "DEBUG"
)

const (
	exportFileModeConstant          = 0o644
	multilineDelimiterPrefix        = "ghadelimiter_"
	multilineDelimiterBytesConstant = 8
	singleLineTemplateConstant      = "%s=%s\n"
	multilineTemplateConstant       = "%s<<%s\n%s\n%s\n"
	exportFileErrorTemplate         = "failed to append to %s: %w"
	setVariableErrorTemplate        = "failed to set %s: %w"
)

// EnvironmentVariable is one exported name/value pair.
type EnvironmentVariable struct {
	Name  string
	Value string
}

// EnvironmentFor lists the variables derived from record: the committer identity and, when the debug string is
// present and non-empty, DEBUG.
func EnvironmentFor(record metadata.PipelineMetadata) []EnvironmentVariable {
	variables := []EnvironmentVariable{
		{Name: GitAuthorNameVariableConstant, Value: record.Committer.Name},
		{Name: GitAuthorEmailVariableConstant, Value: record.Committer.Email},
		{Name: GitCommitterNameVariableConstant, Value: record.Committer.Name},
		{Name: GitCommitterEmailVariableConstant, Value: record.Committer.Email},
	}
	if debugString := record.DebugString.OrElse(""); len(debugString) > 0 {
		variables = append(variables, EnvironmentVariable{Name: DebugVariableConstant, Value: debugString})
	}
	return variables
}

// ActionsEnvironmentExporter sets variables in the current process, so spawned git and npm processes see them,
// and appends them to the GitHub Actions environment file when the run names one.
type ActionsEnvironmentExporter struct {
	Setenv func(key string, value string) error
}

// Export applies variables and appends them to exportPath unless it is empty.
func (exporter ActionsEnvironmentExporter) Export(_ context.Context, exportPath string, variables []EnvironmentVariable) error {
	setenv := exporter.Setenv
	if setenv == nil {
		setenv = os.Setenv
	}
	for _, variable := range variables {
		if setError := setenv(variable.Name, variable.Value); setError != nil {
			return fmt.Errorf(setVariableErrorTemplate, variable.Name, setError)
		}
	}

	if len(strings.TrimSpace(exportPath)) == 0 {
		return nil
	}

	var builder strings.Builder
	for _, variable := range variables {
		entry, entryError := formatEnvironmentEntry(variable)
		if entryError != nil {
			return fmt.Errorf(exportFileErrorTemplate, exportPath, entryError)
		}
		builder.WriteString(entry)
	}

	file, openError := os.OpenFile(exportPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, exportFileModeConstant)
	if openError != nil {
		return fmt.Errorf(exportFileErrorTemplate, exportPath, openError)
	}
	if _, writeError := file.WriteString(builder.String()); writeError != nil {
		_ = file.Close()
		return fmt.Errorf(exportFileErrorTemplate, exportPath, writeError)
	}
	if closeError := file.Close(); closeError != nil {
		return fmt.Errorf(exportFileErrorTemplate, exportPath, closeError)
	}
	return nil
}

// formatEnvironmentEntry uses the heredoc form for values spanning several lines.
func formatEnvironmentEntry(variable EnvironmentVariable) (string, error) {
	if !strings.ContainsAny(variable.Value, "\r\n") {
		return fmt.Sprintf(singleLineTemplateConstant, variable.Name, variable.Value), nil
	}
	randomBytes := make([]byte, multilineDelimiterBytesConstant)
	if _, randomError := rand.Read(randomBytes); randomError != nil {
		return "", randomError
	}
	delimiter := multilineDelimiterPrefix + hex.EncodeToString(randomBytes)
	return fmt.Sprintf(multilineTemplateConstant, variable.Name, delimiter, variable.Value, delimiter), nil
}
