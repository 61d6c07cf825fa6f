package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/arbor/telemetry"
)

func TestDecodeSnapshotVersionMismatch(t *testing.T) {
	data, err := json.Marshal(SnapshotRecord{
		VersionedRecord: VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		RunID:           "run",
		Snapshot:        &telemetry.Snapshot{Version: telemetry.SnapshotVersion},
	})
	require.NoError(t, err)

	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeSnapshotInnerVersionMismatch(t *testing.T) {
	data, err := EncodeSnapshot("run", &telemetry.Snapshot{Version: telemetry.SnapshotVersion + 1})
	require.NoError(t, err)

	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeSnapshotMissingPayload(t *testing.T) {
	data, err := json.Marshal(SnapshotRecord{VersionedRecord: currentVersion(), RunID: "run"})
	require.NoError(t, err)

	_, err = DecodeSnapshot(data)
	assert.Error(t, err)
}

func TestEncodeSnapshotNil(t *testing.T) {
	_, err := EncodeSnapshot("run", nil)
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("SQLite", "x.db")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	_, err = NewStore("unknown", "")
	assert.Error(t, err)
}
