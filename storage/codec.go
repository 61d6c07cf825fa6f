package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pthm-cable/arbor/telemetry"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// VersionedRecord tags every stored payload with the format it was written in.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// SnapshotRecord is the stored envelope around a snapshot.
type SnapshotRecord struct {
	VersionedRecord
	RunID    string              `json:"run_id"`
	Tick     int32               `json:"tick"`
	Snapshot *telemetry.Snapshot `json:"snapshot"`
}

func currentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeSnapshot(runID string, snap *telemetry.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	return json.Marshal(SnapshotRecord{
		VersionedRecord: currentVersion(),
		RunID:           runID,
		Tick:            snap.Tick,
		Snapshot:        snap,
	})
}

func DecodeSnapshot(data []byte) (*telemetry.Snapshot, error) {
	var record SnapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return nil, err
	}
	if record.Snapshot == nil {
		return nil, fmt.Errorf("record %s@%d has no snapshot", record.RunID, record.Tick)
	}
	if record.Snapshot.Version != telemetry.SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d", ErrVersionMismatch, record.Snapshot.Version)
	}
	return record.Snapshot, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
