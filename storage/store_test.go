package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/arbor/growth"
	"github.com/pthm-cable/arbor/telemetry"
)

func snapshotAt(tick int32) *telemetry.Snapshot {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("neuron-0"))
	tree := growth.NewDendriticTree(id, 50)
	tree.Initialize(2)

	return &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    7,
		Tick:    tick,
		Time:    float32(tick) * 0.1,
		Neurons: []telemetry.NeuronState{{
			ID:        id,
			Speed:     100,
			Threshold: 0.5,
			Axon:      growth.NewAxonGrowth(growth.NewPosition(0, 0, 0), 25).ToJSON(),
			Tree:      tree.ToJSON(),
		}},
		Resources: growth.NewDendriteResourceManager(100).ToJSON(),
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "arbor.db")),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			for _, tick := range []int32{300, 100, 200} {
				require.NoError(t, store.SaveSnapshot(ctx, "run-1", snapshotAt(tick)))
			}
			require.NoError(t, store.SaveSnapshot(ctx, "run-2", snapshotAt(50)))

			ticks, err := store.ListTicks(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, []int32{100, 200, 300}, ticks)

			snap, err := store.GetSnapshot(ctx, "run-1", 200)
			require.NoError(t, err)
			assert.Equal(t, int32(200), snap.Tick)
			require.Len(t, snap.Neurons, 1)
			tree, err := snap.Neurons[0].Tree.FromJSON()
			require.NoError(t, err)
			assert.Equal(t, 2, tree.SegmentCount())

			latest, err := store.LatestSnapshot(ctx, "run-1")
			require.NoError(t, err)
			assert.Equal(t, int32(300), latest.Tick)

			_, err = store.GetSnapshot(ctx, "run-1", 999)
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.LatestSnapshot(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			ticks, err = store.ListTicks(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, ticks)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			first := snapshotAt(10)
			require.NoError(t, store.SaveSnapshot(ctx, "run", first))

			second := snapshotAt(10)
			second.Seed = 99
			require.NoError(t, store.SaveSnapshot(ctx, "run", second))

			got, err := store.GetSnapshot(ctx, "run", 10)
			require.NoError(t, err)
			assert.Equal(t, int64(99), got.Seed)

			ticks, err := store.ListTicks(ctx, "run")
			require.NoError(t, err)
			assert.Equal(t, []int32{10}, ticks)
		})
	}
}

func TestStoreNotInitialized(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.ErrorIs(t, store.SaveSnapshot(ctx, "run", snapshotAt(1)), ErrNotInitialized)
			_, err := store.GetSnapshot(ctx, "run", 1)
			assert.ErrorIs(t, err, ErrNotInitialized)
			_, err = store.ListTicks(ctx, "run")
			assert.ErrorIs(t, err, ErrNotInitialized)
		})
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	snap := snapshotAt(5)
	require.NoError(t, store.SaveSnapshot(ctx, "run", snap))
	snap.Neurons[0].Threshold = 42

	got, err := store.GetSnapshot(ctx, "run", 5)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), got.Neurons[0].Threshold)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.SaveSnapshot(ctx, "run", snapshotAt(1)), context.Canceled)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arbor.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveSnapshot(ctx, "run", snapshotAt(42)))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.LatestSnapshot(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, int32(42), got.Tick)
}
