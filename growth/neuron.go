package growth

import "github.com/google/uuid"

// Neuron-derived growth parameters.
const (
	EnergyCapacityPerSpeed  = 1.5
	AxonStartEnergyFraction = 0.5
	FactorRadiusPerSpeed    = 0.2
	DefaultFiringThreshold  = 0.5
)

// NeuronSnapshot is the subset of a neuron's state that growth reads.
type NeuronSnapshot struct {
	ID               uuid.UUID `json:"id"`
	Position         Position  `json:"position"`
	Speed            uint16    `json:"speed"`
	Threshold        float32   `json:"threshold"`
	ActivationEnergy float32   `json:"activation_energy"`
}

// NewNeuronSnapshot creates a snapshot with the default firing threshold.
func NewNeuronSnapshot(id uuid.UUID, pos Position, speed uint16) NeuronSnapshot {
	return NeuronSnapshot{ID: id, Position: pos, Speed: speed, Threshold: DefaultFiringThreshold}
}

// EnergyCapacity is the neuron's energy budget.
func (n NeuronSnapshot) EnergyCapacity() float32 {
	return float32(n.Speed) * EnergyCapacityPerSpeed
}

// StartAxonGrowth starts an axon at the neuron. A nil energy uses half the
// neuron's capacity.
func (n NeuronSnapshot) StartAxonGrowth(initialEnergy *float32) *AxonGrowth {
	energy := n.EnergyCapacity() * AxonStartEnergyFraction
	if initialEnergy != nil {
		energy = *initialEnergy
	}
	return NewAxonGrowth(n.Position, energy)
}

// AsGrowthFactor exposes the neuron as a chemotactic source. Strength is the
// activation relative to the firing threshold.
func (n NeuronSnapshot) AsGrowthFactor(excitatory bool) GrowthFactor {
	kind := Repulsive
	if excitatory {
		kind = Attractive
	}
	var strength float32
	switch {
	case n.Threshold > 0:
		strength = n.ActivationEnergy / n.Threshold
	case n.ActivationEnergy > 0:
		strength = 1
	}
	return NewGrowthFactor(n.Position, strength, float32(n.Speed)*FactorRadiusPerSpeed, kind)
}
