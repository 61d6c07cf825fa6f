// Package components defines ECS components for the simulation.
package components

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// Soma holds a neuron's identity and electrical state. Index is the neuron's
// position in creation order and is stable across snapshots.
type Soma struct {
	ID               uuid.UUID
	Index            int
	Position         growth.Position
	Speed            uint16
	Threshold        float32
	ActivationEnergy float32
	Excitatory       bool
}

// Snapshot returns the read-only view the growth engine consumes.
func (s *Soma) Snapshot() growth.NeuronSnapshot {
	snap := growth.NewNeuronSnapshot(s.ID, s.Position, s.Speed)
	snap.Threshold = s.Threshold
	snap.ActivationEnergy = s.ActivationEnergy
	return snap
}

// Axon owns the neuron's growing axon. Coordinates are world coordinates.
type Axon struct {
	Growth *growth.AxonGrowth
}

// Dendrites owns the neuron's dendritic tree. Segment positions are relative
// to the soma.
type Dendrites struct {
	Tree   *growth.DendriticTree
	Signal float32 // integrated synaptic input from the previous tick
}

// Activity tracks firing.
type Activity struct {
	Level     float32 // exponential moving average of activation
	Firing    bool    // fired this tick
	LastFired float32 // sim time of the most recent firing, -1 if never
	Firings   int
}

// FiredWithin reports whether the neuron fired in the last window of sim time.
func (a *Activity) FiredWithin(now, window float32) bool {
	return a.LastFired >= 0 && now-a.LastFired <= window
}
