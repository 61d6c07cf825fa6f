package growth

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GrowthMeasurement is one sample of an axon's growth history.
// GrowthRate is the per-day rate of the sampled step; Branches is always 0
// for a single growth cone.
type GrowthMeasurement struct {
	Time       float32  `json:"time"`
	Length     float32  `json:"length"`
	GrowthRate float32  `json:"growth_rate"`
	Branches   int      `json:"branches"`
	Position   Position `json:"position"`
	Energy     float32  `json:"energy"`
}

// AxonGrowth tracks a single growth cone moving through the environment.
// The segment list starts with the origin and only ever grows.
type AxonGrowth struct {
	position     Position
	origin       Position
	direction    r3.Vec
	energy       float32
	segments     []Position
	length       float32
	measurements []GrowthMeasurement
	time         float32
}

// NewAxonGrowth creates a growth cone at origin heading along +x.
func NewAxonGrowth(origin Position, initialEnergy float32) *AxonGrowth {
	return &AxonGrowth{
		position:  origin,
		origin:    origin,
		direction: r3.Vec{X: 1},
		energy:    initialEnergy,
		segments:  []Position{origin},
	}
}

// CanGrow reports whether enough energy remains for another step.
func (a *AxonGrowth) CanGrow() bool {
	return a.energy >= AxonMinEnergy
}

// Grow advances the cone by one time step under the given factors and
// returns the distance moved. A step is atomic: when the energy for it is
// missing nothing changes and 0 is returned.
func (a *AxonGrowth) Grow(factors []GrowthFactor, timeStep float32) float32 {
	if !a.CanGrow() || !(timeStep > 0) {
		return 0
	}

	var change r3.Vec
	var totalInfluence float32

	// Deterministic wobble on every third segment.
	if len(a.segments)%3 == 0 {
		angle := math.Mod(float64(a.time*7), 2*math.Pi)
		change.Y += math.Sin(angle) * 0.05
		change.Z += math.Cos(angle) * 0.05
	}

	here := a.position.Vec()
	for _, f := range factors {
		influence := f.InfluenceAt(a.position)
		totalInfluence += influence
		if influence == 0 {
			continue
		}

		toFactor := r3.Sub(f.Position.Vec(), here)
		distance := r3.Norm(toFactor)
		if distance <= 0.001 {
			continue
		}
		scaled := float64(influence) / distance

		if f.Kind == Obstacle && distance < float64(f.Radius) {
			// Deflect orthogonally to the line of contact.
			change.X += -toFactor.X * scaled * 0.5
			change.Y += toFactor.Z * math.Abs(scaled) * 2
			change.Z += -toFactor.Y * math.Abs(scaled) * 2
		} else {
			change = r3.Add(change, r3.Scale(scaled, toFactor))
		}
	}

	direction := a.direction
	if totalInfluence != 0 || change.Y != 0 || change.Z != 0 {
		if unit, ok := normalizeOr(change, 0.001); ok {
			blended := r3.Add(r3.Scale(DirectionInertia, direction), r3.Scale(1-DirectionInertia, unit))
			direction, _ = normalizeOr(blended, 0)
		}
	}

	modifier := 1 + clampFloat(totalInfluence/MaxFactorInfluence, -0.5, 0.5)
	rate := AxonBaseGrowthRate * modifier
	amount := rate * timeStep
	cost := amount * AxonEnergyPerGrowthUnit
	if a.energy < cost {
		return 0
	}

	a.direction = direction
	a.energy -= cost
	a.position = a.position.Translate(direction, amount)
	a.segments = append(a.segments, a.position)
	a.length += amount
	a.time += timeStep
	a.recordMeasurement(rate)

	return amount
}

func (a *AxonGrowth) recordMeasurement(rate float32) {
	n := len(a.measurements)
	if n > 0 && a.time-a.measurements[n-1].Time < MeasurementInterval {
		return
	}
	a.measurements = append(a.measurements, GrowthMeasurement{
		Time:       a.time,
		Length:     a.length,
		GrowthRate: rate,
		Position:   a.position,
		Energy:     a.energy,
	})
	if len(a.measurements) > MaxMeasurements {
		a.measurements = append(a.measurements[:0], a.measurements[1:]...)
	}
}

// ExportMeasurements returns a copy of the growth history.
func (a *AxonGrowth) ExportMeasurements() []GrowthMeasurement {
	return append([]GrowthMeasurement(nil), a.measurements...)
}

// AddEnergy tops up the cone's energy.
func (a *AxonGrowth) AddEnergy(amount float32) {
	a.energy += amount
}

// AverageGrowthRate returns total length over elapsed time, or 0 until at
// least two measurements exist.
func (a *AxonGrowth) AverageGrowthRate() float32 {
	if len(a.measurements) < 2 || a.time <= 0 {
		return 0
	}
	return a.length / a.time
}

// MaintenanceCost is the upkeep of the axon shaft, treated as a cylinder of
// AxonDiameter.
func (a *AxonGrowth) MaintenanceCost() float32 {
	r := float32(AxonDiameter / 2)
	return math.Pi * r * r * a.length * SegmentCostPerVolume
}

// Position returns the current tip.
func (a *AxonGrowth) Position() Position { return a.position }

// Origin returns where the cone started.
func (a *AxonGrowth) Origin() Position { return a.origin }

// Direction returns the current unit heading.
func (a *AxonGrowth) Direction() r3.Vec { return a.direction }

// Energy returns the remaining energy.
func (a *AxonGrowth) Energy() float32 { return a.energy }

// Length returns the cumulative distance grown.
func (a *AxonGrowth) Length() float32 { return a.length }

// Time returns the simulated time consumed by successful steps.
func (a *AxonGrowth) Time() float32 { return a.time }

// Segments returns the path points, origin first. Callers must not modify it.
func (a *AxonGrowth) Segments() []Position { return a.segments }

// Measurements returns the recorded growth history, oldest first.
func (a *AxonGrowth) Measurements() []GrowthMeasurement { return a.measurements }

// LogValue implements slog.LogValuer.
func (a *AxonGrowth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("length", float64(a.length)),
		slog.Float64("energy", float64(a.energy)),
		slog.Float64("time", float64(a.time)),
		slog.Int("segments", len(a.segments)),
	)
}
