package telemetry

import "github.com/pthm-cable/arbor/growth"

// NeuronSample is the per-neuron state read at a window boundary.
type NeuronSample struct {
	Segments        int
	Terminals       int
	MaxDepth        int
	Complexity      float64
	Active          int
	Weakened        int
	Ghost           int
	WeightSum       float64
	TreeEnergy      float64
	MaintenanceCost float64
	AxonLength      float64
	AxonRate        float64
	AxonEnergy      float64
	Activity        float64
	Signal          float64
}

// SampleNeuron walks one neuron's arbor. Either growth structure may be nil.
func SampleNeuron(axon *growth.AxonGrowth, tree *growth.DendriticTree, activity, signal float32) NeuronSample {
	s := NeuronSample{Activity: float64(activity), Signal: float64(signal)}

	if axon != nil {
		s.AxonLength = float64(axon.Length())
		s.AxonRate = float64(axon.AverageGrowthRate())
		s.AxonEnergy = float64(axon.Energy())
		s.MaintenanceCost += float64(axon.MaintenanceCost())
	}
	if tree == nil {
		return s
	}

	s.Segments = tree.SegmentCount()
	s.Complexity = float64(tree.ComplexityScore())
	s.TreeEnergy = float64(tree.Energy())
	s.MaintenanceCost += float64(tree.MaintenanceCost())

	for _, id := range tree.SegmentIDs() {
		seg := tree.Segment(id)
		if len(seg.Children()) == 0 {
			s.Terminals++
		}
		if d := int(seg.Depth()); d > s.MaxDepth {
			s.MaxDepth = d
		}
		for _, syn := range seg.Synapses() {
			switch syn.State() {
			case growth.Active:
				s.Active++
			case growth.Weakened:
				s.Weakened++
			case growth.Ghost:
				s.Ghost++
			}
			s.WeightSum += float64(syn.Weight())
		}
	}
	return s
}
