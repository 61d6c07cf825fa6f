package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when a snapshot was written by an incompatible format.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot holds the complete simulation state for resume and replay.
type Snapshot struct {
	Version int     `json:"version"`
	Seed    int64   `json:"seed"`
	Tick    int32   `json:"tick"`
	Time    float32 `json:"time"`

	Neurons   []NeuronState               `json:"neurons"`
	Resources *growth.ResourceManagerJSON `json:"resources,omitempty"`
}

// NeuronState holds one neuron's complete state.
type NeuronState struct {
	ID               uuid.UUID       `json:"id"`
	Position         growth.Position `json:"position"`
	Speed            uint16          `json:"speed"`
	Threshold        float32         `json:"threshold"`
	ActivationEnergy float32         `json:"activation_energy"`
	Excitatory       bool            `json:"excitatory"`

	// Activity
	Level     float32 `json:"level"`
	Firing    bool    `json:"firing"`
	LastFired float32 `json:"last_fired"`
	Firings   int     `json:"firings"`
	Signal    float32 `json:"signal"`

	Axon *growth.AxonGrowthJSON    `json:"axon,omitempty"`
	Tree *growth.DendriticTreeJSON `json:"tree,omitempty"`
}

// SnapshotFilename returns the file name used for a snapshot at tick.
func SnapshotFilename(tick int32) string {
	return fmt.Sprintf("snapshot_%d.json", tick)
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, SnapshotFilename(snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}

	return &snapshot, nil
}
