package disttags_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/pipegate/internal/disttags"
)

type fakeRegistry struct {
	mutex        sync.Mutex
	published    []string
	listError    error
	failingTags  map[string]error
	deleted      []string
	inFlight     atomic.Int32
	maxInFlight  atomic.Int32
	deletedCalls atomic.Int32
}

func (registry *fakeRegistry) ListDistTags(context.Context, string) ([]string, error) {
	return registry.published, registry.listError
}

func (registry *fakeRegistry) DeleteDistTag(_ context.Context, _ string, tag string) error {
	registry.deletedCalls.Add(1)
	current := registry.inFlight.Add(1)
	defer registry.inFlight.Add(-1)
	for {
		observed := registry.maxInFlight.Load()
		if current <= observed || registry.maxInFlight.CompareAndSwap(observed, current) {
			break
		}
	}

	if failure, failing := registry.failingTags[tag]; failing {
		return failure
	}
	registry.mutex.Lock()
	registry.deleted = append(registry.deleted, tag)
	registry.mutex.Unlock()
	return nil
}

func TestPrunerDeletesEveryTag(testInstance *testing.T) {
	registry := &fakeRegistry{}
	pruner := disttags.NewPruner(zap.NewNop(), registry, 2)

	deleted, pruneError := pruner.Prune(context.Background(), "@acme/widgets", []string{"a", "b", "c", "d", "e"})
	require.NoError(testInstance, pruneError)
	require.Equal(testInstance, []string{"a", "b", "c", "d", "e"}, deleted)
	require.ElementsMatch(testInstance, []string{"a", "b", "c", "d", "e"}, registry.deleted)
	require.LessOrEqual(testInstance, registry.maxInFlight.Load(), int32(2))
}

func TestPrunerCollectsAllFailures(testInstance *testing.T) {
	registry := &fakeRegistry{failingTags: map[string]error{
		"beta":   errors.New("403 Forbidden"),
		"canary": errors.New("network unreachable"),
	}}
	pruner := disttags.NewPruner(nil, registry, 0)

	deleted, pruneError := pruner.Prune(context.Background(), "@acme/widgets", []string{"alpha", "beta", "canary", "delta"})
	require.Equal(testInstance, []string{"alpha", "delta"}, deleted)
	require.Equal(testInstance, int32(4), registry.deletedCalls.Load())

	var partialError *disttags.PartialOperationError
	require.ErrorAs(testInstance, pruneError, &partialError)
	require.Equal(testInstance, []string{"beta", "canary"}, partialError.FailedTags)
	require.ErrorContains(testInstance, pruneError, "one or more outdated dist tags were not pruned: beta, canary")
	require.ErrorContains(testInstance, pruneError, "beta: 403 Forbidden")
	require.ErrorContains(testInstance, pruneError, "canary: network unreachable")
}

func TestPrunerWithoutTags(testInstance *testing.T) {
	deleted, pruneError := disttags.NewPruner(nil, &fakeRegistry{}, 1).Prune(context.Background(), "@acme/widgets", nil)
	require.NoError(testInstance, pruneError)
	require.Empty(testInstance, deleted)
}
