package sim

import (
	"context"
	"fmt"

	"github.com/pthm-cable/arbor/components"
	"github.com/pthm-cable/arbor/config"
	"github.com/pthm-cable/arbor/growth"
	"github.com/pthm-cable/arbor/systems"
	"github.com/pthm-cable/arbor/telemetry"
)

// Snapshot captures the complete simulation state. Restoring it into a
// simulation with the same config continues the run exactly.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	s.collect()
	snap := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		Seed:      s.seed,
		Tick:      s.tick,
		Time:      s.time,
		Neurons:   make([]telemetry.NeuronState, len(s.views)),
		Resources: s.energy.Manager().ToJSON(),
	}
	for i, v := range s.views {
		state := telemetry.NeuronState{
			ID:               v.soma.ID,
			Position:         v.soma.Position,
			Speed:            v.soma.Speed,
			Threshold:        v.soma.Threshold,
			ActivationEnergy: v.soma.ActivationEnergy,
			Excitatory:       v.soma.Excitatory,
			Level:            v.activity.Level,
			Firing:           v.activity.Firing,
			LastFired:        v.activity.LastFired,
			Firings:          v.activity.Firings,
			Signal:           v.dendrites.Signal,
		}
		if v.axon.Growth != nil {
			state.Axon = v.axon.Growth.ToJSON()
		}
		if v.dendrites.Tree != nil {
			state.Tree = v.dendrites.Tree.ToJSON()
		}
		snap.Neurons[i] = state
	}
	return snap
}

// FromSnapshot builds a simulation from cfg and resumes it at snap.
func FromSnapshot(cfg *config.Config, snap *telemetry.Snapshot, opts Options) (*Simulation, error) {
	s, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(snap); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Restore replaces the world with the neurons in snap. The seed, tick, time
// and resource pool are taken from the snapshot.
func (s *Simulation) Restore(snap *telemetry.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("sim: nil snapshot")
	}
	if snap.Version != telemetry.SnapshotVersion {
		return fmt.Errorf("sim: %w: %d", telemetry.ErrSnapshotVersion, snap.Version)
	}

	trees := make([]*growth.DendriticTree, len(snap.Neurons))
	for i, n := range snap.Neurons {
		if n.Tree == nil {
			continue
		}
		tree, err := n.Tree.FromJSON()
		if err != nil {
			return fmt.Errorf("sim: restore neuron %d: %w", i, err)
		}
		trees[i] = tree
	}

	s.initWorld()
	for i, n := range snap.Neurons {
		soma := components.Soma{
			ID:               n.ID,
			Index:            i,
			Position:         n.Position,
			Speed:            n.Speed,
			Threshold:        n.Threshold,
			ActivationEnergy: n.ActivationEnergy,
			Excitatory:       n.Excitatory,
		}
		var axon components.Axon
		if n.Axon != nil {
			axon.Growth = n.Axon.FromJSON()
		}
		dendrites := components.Dendrites{Tree: trees[i], Signal: n.Signal}
		activity := components.Activity{
			Level:     n.Level,
			Firing:    n.Firing,
			LastFired: n.LastFired,
			Firings:   n.Firings,
		}
		s.neuronMapper.NewEntity(&soma, &axon, &dendrites, &activity)
		s.count++
	}
	s.resizeScratch()

	if s.seed != snap.Seed {
		s.seed = snap.Seed
		s.activity = systems.NewActivityDriver(snap.Seed, s.activityParams())
	}
	s.tick = snap.Tick
	s.time = snap.Time
	if snap.Resources != nil {
		s.energy.SetManager(snap.Resources.FromJSON())
	}

	s.collect()
	for i, v := range s.views {
		s.targets[i] = systems.ContactTarget{ID: v.soma.ID, Soma: v.soma.Position, Tree: v.dendrites.Tree}
	}
	s.contacts.Rebuild(s.targets)
	s.collector.SetWindowStart(s.tick)
	s.energyIn = s.heldEnergy()

	s.logger.Info("simulation restored", "tick", s.tick, "neurons", s.count)
	return nil
}

// Checkpoint writes the current state to the snapshot directory and the
// store, whichever are configured.
func (s *Simulation) Checkpoint(ctx context.Context) error {
	if s.opts.SnapshotDir == "" && s.opts.Store == nil {
		return nil
	}
	snap := s.Snapshot()

	if s.opts.SnapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snap, s.opts.SnapshotDir)
		if err != nil {
			return fmt.Errorf("sim: checkpoint: %w", err)
		}
		s.logger.Info("snapshot saved", "path", path, "tick", s.tick)
	}
	if s.opts.Store != nil {
		if err := s.opts.Store.SaveSnapshot(ctx, s.opts.RunID, snap); err != nil {
			return fmt.Errorf("sim: checkpoint: %w", err)
		}
		s.logger.Debug("snapshot stored", "run_id", s.opts.RunID, "tick", s.tick)
	}
	return nil
}

// heldEnergy is the energy currently in the pool, the trees and the axons.
func (s *Simulation) heldEnergy() float64 {
	s.collect()
	total := float64(s.energy.Manager().AvailableEnergy())
	for _, v := range s.views {
		if v.dendrites.Tree != nil {
			total += float64(v.dendrites.Tree.Energy())
		}
		if v.axon.Growth != nil {
			total += float64(v.axon.Growth.Energy())
		}
	}
	return total
}
