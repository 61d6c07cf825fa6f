package sim

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arbor/growth"
)

// Summary condenses the run so far into the figures the optimizer scores.
type Summary struct {
	Tick           int32
	Time           float32
	Neurons        int
	Segments       int
	Synapses       int // active and weakened
	Ghosts         int
	AxonLength     float64
	MeanComplexity float64
	EnergySpent    float64 // consumed since creation or the last restore
}

// ComplexityPerEnergy returns mean complexity per unit of energy spent.
func (s Summary) ComplexityPerEnergy() float64 {
	if s.EnergySpent <= 0 {
		return 0
	}
	return s.MeanComplexity / s.EnergySpent
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(s.Tick)),
		slog.Float64("time", float64(s.Time)),
		slog.Int("neurons", s.Neurons),
		slog.Int("segments", s.Segments),
		slog.Int("synapses", s.Synapses),
		slog.Int("ghosts", s.Ghosts),
		slog.Float64("axon_length", s.AxonLength),
		slog.Float64("mean_complexity", s.MeanComplexity),
		slog.Float64("energy_spent", s.EnergySpent),
	)
}

// Summary returns aggregate figures for the current state.
func (s *Simulation) Summary() Summary {
	sum := Summary{
		Tick:        s.tick,
		Time:        s.time,
		Neurons:     s.count,
		EnergySpent: s.energyIn - s.heldEnergy(),
	}

	complexity := make([]float64, 0, len(s.views))
	for _, v := range s.views {
		if v.axon.Growth != nil {
			sum.AxonLength += float64(v.axon.Growth.Length())
		}
		tree := v.dendrites.Tree
		if tree == nil {
			continue
		}
		complexity = append(complexity, float64(tree.ComplexityScore()))
		sum.Segments += tree.SegmentCount()
		for _, id := range tree.SegmentIDs() {
			for _, syn := range tree.Segment(id).Synapses() {
				if syn.State() == growth.Ghost {
					sum.Ghosts++
				} else {
					sum.Synapses++
				}
			}
		}
	}
	if len(complexity) > 0 {
		sum.MeanComplexity = stat.Mean(complexity, nil)
	}
	return sum
}
