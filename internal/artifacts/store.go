package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/pipegate/internal/metadata"
)

const (
	metadataKeyTemplateConstant = "metadata-%s-%s"
	indexSuffixConstant         = ".artifact.json"
	directoryModeConstant       = 0o755
	fileModeConstant            = 0o644
	hoursPerDayConstant         = 24
	missingDirectoryMessage     = "artifact directory must be provided"
	missingKeyMessage           = "artifact key must be provided"
	writeErrorTemplateConstant  = "failed to store artifact %s: %w"
	readErrorTemplateConstant   = "failed to read artifact %s: %w"
	removeErrorTemplateConstant = "failed to remove expired artifact %s: %w"
	listErrorTemplateConstant   = "failed to list artifacts in %s: %w"
)

// ErrArtifactDirectoryRequired indicates the store has no directory.
var ErrArtifactDirectoryRequired = errors.New(missingDirectoryMessage)

// ErrArtifactKeyRequired indicates an empty artifact key.
var ErrArtifactKeyRequired = errors.New(missingKeyMessage)

// MetadataKey names the metadata artifact of one commit on one runner OS.
func MetadataKey(runnerOS string, commitSha string) string {
	return fmt.Sprintf(metadataKeyTemplateConstant, runnerOS, commitSha)
}

// Descriptor is written next to every artifact.
type Descriptor struct {
	Key       string    `json:"key"`
	Codec     string    `json:"codec"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"createdAt"`
	// ExpiresAt is zero when the artifact never expires.
	ExpiresAt time.Time `json:"expiresAt"`
}

// FileStore keeps artifacts as files in one directory.
type FileStore struct {
	directory string
	codec     Codec
	now       func() time.Time
}

// NewFileStore constructs a FileStore. A nil now uses time.Now.
func NewFileStore(directory string, codec Codec, now func() time.Time) (*FileStore, error) {
	if len(strings.TrimSpace(directory)) == 0 {
		return nil, ErrArtifactDirectoryRequired
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if now == nil {
		now = time.Now
	}
	return &FileStore{directory: directory, codec: codec, now: now}, nil
}

// Upload encodes record under key. A retention of zero or less keeps the artifact indefinitely.
func (store *FileStore) Upload(_ context.Context, key string, retentionDays int, record metadata.PipelineMetadata) (Descriptor, error) {
	if len(strings.TrimSpace(key)) == 0 {
		return Descriptor{}, ErrArtifactKeyRequired
	}

	encoded, encodeError := store.codec.Encode(record)
	if encodeError != nil {
		return Descriptor{}, fmt.Errorf(writeErrorTemplateConstant, key, encodeError)
	}

	createdAt := store.now().UTC()
	descriptor := Descriptor{Key: key, Codec: store.codec.Name(), File: key + store.codec.Extension(), CreatedAt: createdAt}
	if retentionDays > 0 {
		descriptor.ExpiresAt = createdAt.Add(time.Duration(retentionDays) * hoursPerDayConstant * time.Hour)
	}
	encodedDescriptor, descriptorError := json.Marshal(descriptor)
	if descriptorError != nil {
		return Descriptor{}, fmt.Errorf(writeErrorTemplateConstant, key, descriptorError)
	}

	if mkdirError := os.MkdirAll(store.directory, directoryModeConstant); mkdirError != nil {
		return Descriptor{}, fmt.Errorf(writeErrorTemplateConstant, key, mkdirError)
	}
	if writeError := os.WriteFile(filepath.Join(store.directory, descriptor.File), encoded, fileModeConstant); writeError != nil {
		return Descriptor{}, fmt.Errorf(writeErrorTemplateConstant, key, writeError)
	}
	if writeError := os.WriteFile(store.descriptorPath(key), encodedDescriptor, fileModeConstant); writeError != nil {
		return Descriptor{}, fmt.Errorf(writeErrorTemplateConstant, key, writeError)
	}
	return descriptor, nil
}

// Load decodes the artifact stored under key with the codec recorded at upload time.
func (store *FileStore) Load(_ context.Context, key string) (metadata.PipelineMetadata, error) {
	descriptor, descriptorError := store.readDescriptor(key)
	if descriptorError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(readErrorTemplateConstant, key, descriptorError)
	}
	codec, codecError := CodecByName(descriptor.Codec)
	if codecError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(readErrorTemplateConstant, key, codecError)
	}
	contents, readError := os.ReadFile(filepath.Join(store.directory, descriptor.File))
	if readError != nil {
		return metadata.PipelineMetadata{}, fmt.Errorf(readErrorTemplateConstant, key, readError)
	}
	return codec.Decode(contents)
}

// RemoveExpired deletes every artifact whose retention window has passed and returns the removed keys.
func (store *FileStore) RemoveExpired(_ context.Context) ([]string, error) {
	entries, listError := os.ReadDir(store.directory)
	if listError != nil {
		if errors.Is(listError, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf(listErrorTemplateConstant, store.directory, listError)
	}

	now := store.now().UTC()
	removed := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), indexSuffixConstant) {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), indexSuffixConstant)
		descriptor, descriptorError := store.readDescriptor(key)
		if descriptorError != nil {
			return removed, fmt.Errorf(readErrorTemplateConstant, key, descriptorError)
		}
		if descriptor.ExpiresAt.IsZero() || now.Before(descriptor.ExpiresAt) {
			continue
		}
		for _, path := range []string{filepath.Join(store.directory, descriptor.File), store.descriptorPath(key)} {
			if removeError := os.Remove(path); removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
				return removed, fmt.Errorf(removeErrorTemplateConstant, key, removeError)
			}
		}
		removed = append(removed, key)
	}
	return removed, nil
}

func (store *FileStore) readDescriptor(key string) (Descriptor, error) {
	contents, readError := os.ReadFile(store.descriptorPath(key))
	if readError != nil {
		return Descriptor{}, readError
	}
	var descriptor Descriptor
	if decodeError := json.Unmarshal(contents, &descriptor); decodeError != nil {
		return Descriptor{}, decodeError
	}
	return descriptor, nil
}

func (store *FileStore) descriptorPath(key string) string {
	return filepath.Join(store.directory, key+indexSuffixConstant)
}
