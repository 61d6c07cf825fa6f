package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pthm-cable/arbor/telemetry"
)

// MemoryStore keeps encoded snapshots in process memory. Payloads go through
// the same codec as the SQLite backend so callers never share state with it.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int32][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]map[int32][]byte)
	return nil
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, runID string, snap *telemetry.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeSnapshot(runID, snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	ticks, ok := s.runs[runID]
	if !ok {
		ticks = make(map[int32][]byte)
		s.runs[runID] = ticks
	}
	ticks[snap.Tick] = payload
	return nil
}

func (s *MemoryStore) GetSnapshot(ctx context.Context, runID string, tick int32) (*telemetry.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	payload, ok := s.runs[runID][tick]
	if !ok {
		return nil, ErrNotFound
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s@%d: %w", runID, tick, err)
	}
	return snap, nil
}

func (s *MemoryStore) LatestSnapshot(ctx context.Context, runID string) (*telemetry.Snapshot, error) {
	ticks, err := s.ListTicks(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, ErrNotFound
	}
	return s.GetSnapshot(ctx, runID, ticks[len(ticks)-1])
}

func (s *MemoryStore) ListTicks(ctx context.Context, runID string) ([]int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	ticks := make([]int32, 0, len(s.runs[runID]))
	for tick := range s.runs[runID] {
		ticks = append(ticks, tick)
	}
	slices.Sort(ticks)
	return ticks, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	s.runs = nil
	return nil
}
