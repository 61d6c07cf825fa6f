package main

import (
	"github.com/pthm-cable/arbor/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy budgets
			{Name: "tree_energy", Path: "neuron.tree_energy", Min: 10, Max: 200, Default: 50},
			{Name: "pool_energy", Path: "resources.pool_energy", Min: 0, Max: 1000, Default: 200},
			{Name: "replenish_per_tick", Path: "resources.replenish_per_tick", Min: 0, Max: 20, Default: 5},
			{Name: "distribution_interval", Path: "resources.interval", Min: 0.1, Max: 10, Default: 1},
			// Connectivity
			{Name: "contact_radius", Path: "synapses.contact_radius", Min: 0.5, Max: 15, Default: 4},
			{Name: "threshold", Path: "neuron.threshold", Min: 0.1, Max: 0.95, Default: 0.5},
			{Name: "gain", Path: "activity.gain", Min: 0.2, Max: 2, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Neuron.TreeEnergy = clamped[0]
	cfg.Resources.PoolEnergy = clamped[1]
	cfg.Resources.ReplenishPerTick = clamped[2]
	cfg.Resources.Interval = clamped[3]
	cfg.Synapses.ContactRadius = clamped[4]
	cfg.Neuron.Threshold = clamped[5]
	cfg.Activity.Gain = clamped[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Neuron.TreeEnergy,
		cfg.Resources.PoolEnergy,
		cfg.Resources.ReplenishPerTick,
		cfg.Resources.Interval,
		cfg.Synapses.ContactRadius,
		cfg.Neuron.Threshold,
		cfg.Activity.Gain,
	}
}
