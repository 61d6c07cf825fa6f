package growth

// Grower is anything that can grow under environmental factors and report
// its upkeep. DendriticTree implements it directly; axons through AsGrower.
type Grower interface {
	Grow(factors []GrowthFactor, timeStep, activity float32) bool
	AddEnergy(amount float32)
	Energy() float32
	MaintenanceCost() float32
	Position() Position
}

var (
	_ Grower = (*DendriticTree)(nil)
	_ Grower = AxonGrower{}
)

// AxonGrower adapts an AxonGrowth to Grower. Activity does not affect axon
// growth.
type AxonGrower struct {
	*AxonGrowth
}

// AsGrower wraps the axon as a Grower.
func (a *AxonGrowth) AsGrower() AxonGrower {
	return AxonGrower{AxonGrowth: a}
}

// Grow reports whether the axon moved.
func (g AxonGrower) Grow(factors []GrowthFactor, timeStep, _ float32) bool {
	return g.AxonGrowth.Grow(factors, timeStep) > 0
}
