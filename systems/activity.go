package systems

import (
	"github.com/pthm-cable/arbor/components"
)

// ActivityParams configures the noise-driven activity model.
type ActivityParams struct {
	NoiseScale float32 // spatial frequency of the drive
	TimeScale  float32 // temporal frequency of the drive
	Gain       float32
	Smoothing  float32 // EMA factor for Activity.Level
}

// ActivityDriver produces activation for every neuron from coherent noise
// plus the synaptic input integrated on the previous tick.
type ActivityDriver struct {
	noise  *PerlinNoise
	params ActivityParams
}

// NewActivityDriver creates a driver seeded from the simulation seed.
func NewActivityDriver(seed int64, params ActivityParams) *ActivityDriver {
	if params.Smoothing <= 0 || params.Smoothing > 1 {
		params.Smoothing = 1
	}
	return &ActivityDriver{noise: NewPerlinNoise(seed), params: params}
}

// Drive returns the external drive in [0, 1] for a soma at time now.
func (d *ActivityDriver) Drive(soma *components.Soma, now float32) float32 {
	ns := float64(d.params.NoiseScale)
	// Offset by index so neurons sharing a position still decorrelate.
	x := float64(soma.Position.X)*ns + float64(soma.Index)*7.31
	y := float64(soma.Position.Y)*ns + float64(soma.Position.Z)*ns
	z := float64(now) * float64(d.params.TimeScale)
	return d.noise.Sample(x, y, z)
}

// Update sets the soma's activation energy and the neuron's firing state for
// time now. It returns whether the neuron fired.
func (d *ActivityDriver) Update(soma *components.Soma, act *components.Activity, signal, now float32) bool {
	activation := clamp01(d.params.Gain*d.Drive(soma, now) + signal)
	soma.ActivationEnergy = activation

	act.Level += d.params.Smoothing * (activation - act.Level)
	act.Firing = soma.Threshold > 0 && activation >= soma.Threshold
	if act.Firing {
		act.LastFired = now
		act.Firings++
	}
	return act.Firing
}
