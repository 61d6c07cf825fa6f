package systems

import (
	"github.com/pthm-cable/arbor/growth"
)

// Environment holds the growth factors seen by every neuron in one tick:
// static factors from configuration plus one factor per neuron.
type Environment struct {
	static  []growth.GrowthFactor
	neurons []growth.GrowthFactor
}

// NewEnvironment creates an environment with the given static factors.
func NewEnvironment(static []growth.GrowthFactor) *Environment {
	return &Environment{static: append([]growth.GrowthFactor(nil), static...)}
}

// Update rebuilds the per-neuron factors. snaps and excitatory are indexed by
// neuron index.
func (e *Environment) Update(snaps []growth.NeuronSnapshot, excitatory []bool) {
	e.neurons = e.neurons[:0]
	for i, snap := range snaps {
		e.neurons = append(e.neurons, snap.AsGrowthFactor(excitatory[i]))
	}
}

// Static returns the configured factors.
func (e *Environment) Static() []growth.GrowthFactor { return e.static }

// NeuronFactor returns the factor emitted by neuron i.
func (e *Environment) NeuronFactor(i int) growth.GrowthFactor { return e.neurons[i] }

// Len is the number of factors a single neuron can see.
func (e *Environment) Len() int {
	if len(e.neurons) == 0 {
		return len(e.static)
	}
	return len(e.static) + len(e.neurons) - 1
}

// AxonFactors appends to dst the world-frame factors that neuron self
// responds to. A neuron never senses its own factor, and silent neurons are
// skipped.
func (e *Environment) AxonFactors(dst []growth.GrowthFactor, self int) []growth.GrowthFactor {
	dst = append(dst, e.static...)
	for i, f := range e.neurons {
		if i == self || f.Strength == 0 {
			continue
		}
		dst = append(dst, f)
	}
	return dst
}

// TreeFactors is AxonFactors expressed in the soma frame at origin.
func (e *Environment) TreeFactors(dst []growth.GrowthFactor, self int, origin growth.Position) []growth.GrowthFactor {
	start := len(dst)
	dst = e.AxonFactors(dst, self)
	for i := start; i < len(dst); i++ {
		dst[i].Position = toLocal(dst[i].Position, origin)
	}
	return dst
}
