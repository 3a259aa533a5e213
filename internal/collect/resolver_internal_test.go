package collect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/artifacts"
	"github.com/temirov/pipegate/internal/metadata"
)

func TestStoreUploaderSweepsExpiredArtifacts(testInstance *testing.T) {
	directory := testInstance.TempDir()
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store, storeError := artifacts.NewFileStore(directory, nil, clock)
	require.NoError(testInstance, storeError)
	uploader := storeUploader{logger: zap.NewNop(), store: store}

	record := metadata.PipelineMetadata{PackageName: "@acme/widgets"}
	require.NoError(testInstance, uploader.Upload(context.Background(), "metadata-Linux-old", 1, record))

	now = now.Add(48 * time.Hour)
	require.NoError(testInstance, uploader.Upload(context.Background(), "metadata-Linux-new", 1, record))

	_, loadError := store.Load(context.Background(), "metadata-Linux-old")
	require.Error(testInstance, loadError)
	loaded, loadError := store.Load(context.Background(), "metadata-Linux-new")
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "@acme/widgets", loaded.PackageName)
}
