package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GrowthStats holds aggregated statistics for a time window.
type GrowthStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTime         float64 `csv:"sim_time"`

	// Morphology at window end
	Neurons        int     `csv:"neurons"`
	Segments       int     `csv:"segments"`
	Terminals      int     `csv:"terminals"`
	MaxDepth       int     `csv:"max_depth"`
	ComplexityMean float64 `csv:"complexity_mean"`
	ComplexityStd  float64 `csv:"complexity_std"`
	AxonLengthMean float64 `csv:"axon_length_mean"`
	AxonRateMean   float64 `csv:"axon_rate_mean"`

	// Synapse population at window end
	ActiveSynapses   int     `csv:"active_synapses"`
	WeakenedSynapses int     `csv:"weakened_synapses"`
	GhostSynapses    int     `csv:"ghost_synapses"`
	WeightMean       float64 `csv:"weight_mean"`

	// Events during window
	Branches       int     `csv:"branches"`
	AxonDistance   float64 `csv:"axon_distance"`
	SynapsesFormed int     `csv:"synapses_formed"`
	SynapsesPruned int     `csv:"synapses_pruned"`
	Reactivations  int     `csv:"reactivations"`
	Firings        int     `csv:"firings"`
	Distributions  int     `csv:"distributions"`

	// Activity and signalling at window end
	ActivityMean float64 `csv:"activity_mean"`
	SignalMean   float64 `csv:"signal_mean"`

	// Energy distribution (sampled at window end)
	TreeEnergyMean float64 `csv:"tree_energy_mean"`
	TreeEnergyP10  float64 `csv:"tree_energy_p10"`
	TreeEnergyP50  float64 `csv:"tree_energy_p50"`
	TreeEnergyP90  float64 `csv:"tree_energy_p90"`

	AxonEnergyMean float64 `csv:"axon_energy_mean"`
	AxonEnergyP10  float64 `csv:"axon_energy_p10"`
	AxonEnergyP50  float64 `csv:"axon_energy_p50"`
	AxonEnergyP90  float64 `csv:"axon_energy_p90"`

	PoolEnergy      float64 `csv:"pool_energy"`
	MaintenanceCost float64 `csv:"maintenance_cost"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// ComputeMeanStd returns the mean and population standard deviation.
func ComputeMeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)
	return mean, std
}

// LogValue implements slog.LogValuer for structured logging.
func (s GrowthStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("neurons", s.Neurons),
		slog.Int("segments", s.Segments),
		slog.Int("terminals", s.Terminals),
		slog.Int("max_depth", s.MaxDepth),
		slog.Float64("complexity_mean", s.ComplexityMean),
		slog.Float64("axon_length_mean", s.AxonLengthMean),
		slog.Int("active_synapses", s.ActiveSynapses),
		slog.Int("weakened_synapses", s.WeakenedSynapses),
		slog.Int("ghost_synapses", s.GhostSynapses),
		slog.Int("branches", s.Branches),
		slog.Int("synapses_formed", s.SynapsesFormed),
		slog.Int("synapses_pruned", s.SynapsesPruned),
		slog.Int("reactivations", s.Reactivations),
		slog.Int("firings", s.Firings),
		slog.Float64("tree_energy_mean", s.TreeEnergyMean),
		slog.Float64("axon_energy_mean", s.AxonEnergyMean),
		slog.Float64("pool_energy", s.PoolEnergy),
	)
}

// LogStats logs the window stats on logger.
func (s GrowthStats) LogStats(logger *slog.Logger) {
	logger.Info("stats", "window", s)
}
