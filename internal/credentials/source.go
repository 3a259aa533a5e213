package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	sourceSeparatorConstant         = ":"
	environmentSourceKindConstant   = "env"
	fileSourceKindConstant          = "file"
	missingDeclarationMessage       = "credential source must be provided"
	missingVariableNameMessage      = "environment variable name must be provided"
	missingFilePathMessage          = "credential file path must be provided"
	unsetVariableTemplateConstant   = "environment variable %s is not set"
	unreadableFileTemplateConstant  = "unable to read credential file %s: %w"
	emptyFileTemplateConstant       = "credential file %s is empty"
	unsupportedKindTemplateConstant = "unsupported credential source %q"
)

// ErrCredentialMissing marks a declaration that resolved to nothing.
var ErrCredentialMissing = errors.New("credential missing")

// SourceKind tells the resolver where a secret lives.
type SourceKind string

// Supported source kinds.
const (
	SourceKindEnvironment SourceKind = SourceKind(environmentSourceKindConstant)
	SourceKindFile        SourceKind = SourceKind(fileSourceKindConstant)
)

// Source is a parsed credential declaration.
type Source struct {
	Kind      SourceKind
	Reference string
}

// String renders the declaration back in its textual form.
func (source Source) String() string {
	return string(source.Kind) + sourceSeparatorConstant + source.Reference
}

// ParseSource interprets "env:NAME", "file:/path" and bare variable names.
func ParseSource(declaration string) (Source, error) {
	trimmed := strings.TrimSpace(declaration)
	if len(trimmed) == 0 {
		return Source{}, errors.New(missingDeclarationMessage)
	}

	kind, reference, hasKind := strings.Cut(trimmed, sourceSeparatorConstant)
	if !hasKind {
		return Source{Kind: SourceKindEnvironment, Reference: trimmed}, nil
	}

	reference = strings.TrimSpace(reference)
	switch SourceKind(strings.ToLower(strings.TrimSpace(kind))) {
	case SourceKindEnvironment:
		if len(reference) == 0 {
			return Source{}, errors.New(missingVariableNameMessage)
		}
		return Source{Kind: SourceKindEnvironment, Reference: reference}, nil
	case SourceKindFile:
		if len(reference) == 0 {
			return Source{}, errors.New(missingFilePathMessage)
		}
		return Source{Kind: SourceKindFile, Reference: reference}, nil
	default:
		return Source{}, fmt.Errorf(unsupportedKindTemplateConstant, kind)
	}
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads a whole file.
type FileReader func(path string) ([]byte, error)

// Resolver reads secrets from the environment or from files. Values are trimmed; an empty value counts as missing.
type Resolver struct {
	lookupEnvironment EnvironmentLookup
	readFile          FileReader
}

// NewResolver builds a Resolver, falling back to os.LookupEnv and os.ReadFile.
func NewResolver(lookupEnvironment EnvironmentLookup, readFile FileReader) *Resolver {
	if lookupEnvironment == nil {
		lookupEnvironment = os.LookupEnv
	}
	if readFile == nil {
		readFile = os.ReadFile
	}
	return &Resolver{lookupEnvironment: lookupEnvironment, readFile: readFile}
}

// Resolve returns the secret named by source.
func (resolver *Resolver) Resolve(_ context.Context, source Source) (string, error) {
	switch source.Kind {
	case SourceKindEnvironment:
		value, _ := resolver.lookupEnvironment(source.Reference)
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			return "", fmt.Errorf("%w: "+unsetVariableTemplateConstant, ErrCredentialMissing, source.Reference)
		}
		return trimmed, nil
	case SourceKindFile:
		contents, readError := resolver.readFile(source.Reference)
		if readError != nil {
			return "", fmt.Errorf(unreadableFileTemplateConstant, source.Reference, readError)
		}
		trimmed := strings.TrimSpace(string(contents))
		if len(trimmed) == 0 {
			return "", fmt.Errorf("%w: "+emptyFileTemplateConstant, ErrCredentialMissing, source.Reference)
		}
		return trimmed, nil
	default:
		return "", fmt.Errorf(unsupportedKindTemplateConstant, source.Kind)
	}
}

// ResolveDeclaration parses declaration and resolves it. An empty declaration yields an empty secret so optional
// credentials can stay unset.
func (resolver *Resolver) ResolveDeclaration(executionContext context.Context, declaration string) (string, error) {
	if len(strings.TrimSpace(declaration)) == 0 {
		return "", nil
	}
	source, parseError := ParseSource(declaration)
	if parseError != nil {
		return "", parseError
	}
	return resolver.Resolve(executionContext, source)
}
