package telemetry

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(10, 0.1)

	if c.ShouldFlush(9) {
		t.Error("window should not flush before its duration")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should flush at its duration")
	}

	c.RecordBranch()
	c.RecordBranch()
	c.RecordAxonGrowth(1.5)
	c.RecordSynapseFormed()
	c.RecordPruned(3)
	c.RecordReactivation()
	c.RecordFiring()
	c.RecordDistribution()

	samples := []NeuronSample{
		{Segments: 4, Terminals: 3, MaxDepth: 1, Complexity: 2, Active: 2, WeightSum: 0.4, TreeEnergy: 10, AxonEnergy: 5},
		{Segments: 6, Terminals: 4, MaxDepth: 2, Complexity: 4, Ghost: 2, WeightSum: 0.1, TreeEnergy: 20, AxonEnergy: 15},
	}
	stats := c.Flush(10, samples, 123)

	if stats.WindowEndTick != 10 || stats.WindowStartTick != 0 {
		t.Errorf("window = [%d, %d], want [0, 10]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if math.Abs(stats.SimTime-1.0) > 1e-6 {
		t.Errorf("SimTime = %v, want 1", stats.SimTime)
	}
	if stats.Branches != 2 || stats.SynapsesPruned != 3 || stats.Reactivations != 1 {
		t.Errorf("event counts wrong: %+v", stats)
	}
	if stats.Segments != 10 || stats.Terminals != 7 || stats.MaxDepth != 2 {
		t.Errorf("morphology wrong: segments=%d terminals=%d depth=%d", stats.Segments, stats.Terminals, stats.MaxDepth)
	}
	if stats.ComplexityMean != 3 {
		t.Errorf("ComplexityMean = %v, want 3", stats.ComplexityMean)
	}
	if math.Abs(stats.WeightMean-0.125) > 1e-9 {
		t.Errorf("WeightMean = %v, want 0.125", stats.WeightMean)
	}
	if stats.TreeEnergyMean != 15 || stats.PoolEnergy != 123 {
		t.Errorf("energy wrong: tree=%v pool=%v", stats.TreeEnergyMean, stats.PoolEnergy)
	}

	next := c.Flush(20, nil, 0)
	if next.Branches != 0 || next.Firings != 0 || next.AxonDistance != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("next window start = %d, want 10", next.WindowStartTick)
	}
}

func TestCollectorSetWindowStart(t *testing.T) {
	c := NewCollector(5, 0.1)
	c.SetWindowStart(100)

	if c.ShouldFlush(104) {
		t.Error("should not flush inside restored window")
	}
	if !c.ShouldFlush(105) {
		t.Error("should flush at end of restored window")
	}
}

func TestSampleNeuron(t *testing.T) {
	tree := growth.NewDendriticTree(uuid.New(), 50)
	tree.Initialize(3)
	roots := tree.RootSegmentIDs()
	if _, ok := tree.AddSynapse(roots[0], uuid.New()); !ok {
		t.Fatal("AddSynapse failed")
	}

	axon := growth.NewAxonGrowth(growth.NewPosition(0, 0, 0), 20)

	s := SampleNeuron(axon, tree, 0.5, 0.2)
	if s.Segments != 3 || s.Terminals != 3 {
		t.Errorf("segments=%d terminals=%d, want 3/3", s.Segments, s.Terminals)
	}
	if s.Active != 1 {
		t.Errorf("Active = %d, want 1", s.Active)
	}
	if s.AxonEnergy != 20 {
		t.Errorf("AxonEnergy = %v, want 20", s.AxonEnergy)
	}
	if s.Activity != 0.5 {
		t.Errorf("Activity = %v, want 0.5", s.Activity)
	}

	empty := SampleNeuron(nil, nil, 0, 0)
	if empty.Segments != 0 || empty.AxonLength != 0 {
		t.Errorf("nil arbor should sample to zero: %+v", empty)
	}
}
