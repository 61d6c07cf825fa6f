package telemetry

// Collector accumulates events within tick windows and produces GrowthStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	branches       int
	axonDistance   float64
	synapsesFormed int
	synapsesPruned int
	reactivations  int
	firings        int
	distributions  int
}

// NewCollector creates a new stats collector.
// windowTicks: ticks per stats window
// dt: simulated days per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float32) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// RecordBranch records a new dendritic segment.
func (c *Collector) RecordBranch() { c.branches++ }

// RecordAxonGrowth records distance covered by an axon.
func (c *Collector) RecordAxonGrowth(distance float32) { c.axonDistance += float64(distance) }

// RecordSynapseFormed records a new contact.
func (c *Collector) RecordSynapseFormed() { c.synapsesFormed++ }

// RecordPruned records synapses turned into ghosts.
func (c *Collector) RecordPruned(n int) { c.synapsesPruned += n }

// RecordReactivation records a revived ghost synapse.
func (c *Collector) RecordReactivation() { c.reactivations++ }

// RecordFiring records a neuron firing.
func (c *Collector) RecordFiring() { c.firings++ }

// RecordDistribution records a resource distribution.
func (c *Collector) RecordDistribution() { c.distributions++ }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces GrowthStats from the window's events and the given neuron
// samples, then resets counters for the next window.
func (c *Collector) Flush(currentTick int32, samples []NeuronSample, poolEnergy float64) GrowthStats {
	stats := GrowthStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTime:         float64(currentTick) * float64(c.dt),
		Neurons:         len(samples),

		Branches:       c.branches,
		AxonDistance:   c.axonDistance,
		SynapsesFormed: c.synapsesFormed,
		SynapsesPruned: c.synapsesPruned,
		Reactivations:  c.reactivations,
		Firings:        c.firings,
		Distributions:  c.distributions,

		PoolEnergy: poolEnergy,
	}

	n := len(samples)
	complexity := make([]float64, n)
	treeEnergy := make([]float64, n)
	axonEnergy := make([]float64, n)
	axonLength := make([]float64, n)
	axonRate := make([]float64, n)
	activity := make([]float64, n)
	signal := make([]float64, n)
	var weightSum float64

	for i, s := range samples {
		stats.Segments += s.Segments
		stats.Terminals += s.Terminals
		stats.MaxDepth = max(stats.MaxDepth, s.MaxDepth)
		stats.ActiveSynapses += s.Active
		stats.WeakenedSynapses += s.Weakened
		stats.GhostSynapses += s.Ghost
		stats.MaintenanceCost += s.MaintenanceCost
		weightSum += s.WeightSum

		complexity[i] = s.Complexity
		treeEnergy[i] = s.TreeEnergy
		axonEnergy[i] = s.AxonEnergy
		axonLength[i] = s.AxonLength
		axonRate[i] = s.AxonRate
		activity[i] = s.Activity
		signal[i] = s.Signal
	}

	if total := stats.ActiveSynapses + stats.WeakenedSynapses + stats.GhostSynapses; total > 0 {
		stats.WeightMean = weightSum / float64(total)
	}
	stats.ComplexityMean, stats.ComplexityStd = ComputeMeanStd(complexity)
	stats.AxonLengthMean, _ = ComputeMeanStd(axonLength)
	stats.AxonRateMean, _ = ComputeMeanStd(axonRate)
	stats.ActivityMean, _ = ComputeMeanStd(activity)
	stats.SignalMean, _ = ComputeMeanStd(signal)
	stats.TreeEnergyMean, stats.TreeEnergyP10, stats.TreeEnergyP50, stats.TreeEnergyP90 = ComputeEnergyStats(treeEnergy)
	stats.AxonEnergyMean, stats.AxonEnergyP10, stats.AxonEnergyP50, stats.AxonEnergyP90 = ComputeEnergyStats(axonEnergy)

	// Reset for next window
	c.windowStartTick = currentTick
	c.branches = 0
	c.axonDistance = 0
	c.synapsesFormed = 0
	c.synapsesPruned = 0
	c.reactivations = 0
	c.firings = 0
	c.distributions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// SetWindowStart moves the start of the current window, e.g. after a restore.
func (c *Collector) SetWindowStart(tick int32) {
	c.windowStartTick = tick
}
