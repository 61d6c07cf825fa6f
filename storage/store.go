// Package storage persists simulation snapshots keyed by run and tick.
package storage

import (
	"context"
	"errors"

	"github.com/pthm-cable/arbor/telemetry"
)

var (
	// ErrNotFound is returned when no snapshot matches the lookup.
	ErrNotFound = errors.New("snapshot not found")
	// ErrNotInitialized is returned by operations on a store before Init.
	ErrNotInitialized = errors.New("store is not initialized")
)

// Store persists snapshots of a simulation run. Implementations are safe for
// concurrent use.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, runID string, snap *telemetry.Snapshot) error
	GetSnapshot(ctx context.Context, runID string, tick int32) (*telemetry.Snapshot, error)
	LatestSnapshot(ctx context.Context, runID string) (*telemetry.Snapshot, error)
	ListTicks(ctx context.Context, runID string) ([]int32, error)
	Close() error
}
