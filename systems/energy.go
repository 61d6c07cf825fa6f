package systems

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/arbor/growth"
)

// EnergyParams configures per-tick energy inflow.
type EnergyParams struct {
	ReplenishPerTick     float32 // added to the shared dendrite pool
	AxonReplenishPerTick float32 // added to every axon
}

// EnergySystem is the single writer of the shared dendrite resource pool.
type EnergySystem struct {
	manager *growth.DendriteResourceManager
	params  EnergyParams
	buf     []float64
}

// NewEnergySystem wraps manager.
func NewEnergySystem(manager *growth.DendriteResourceManager, params EnergyParams) *EnergySystem {
	return &EnergySystem{manager: manager, params: params}
}

// Manager returns the shared pool.
func (e *EnergySystem) Manager() *growth.DendriteResourceManager { return e.manager }

// SetManager replaces the shared pool, e.g. after a restore.
func (e *EnergySystem) SetManager(m *growth.DendriteResourceManager) { e.manager = m }

// EnergyReport describes one energy step.
type EnergyReport struct {
	Distributed bool
	Delivered   float32 // energy moved from the pool into trees
}

// Step replenishes the pool and the axons, then lets the pool distribute to
// trees at time now. activities is indexed like trees.
func (e *EnergySystem) Step(trees []*growth.DendriticTree, activities []float32, axons []*growth.AxonGrowth, now float32) EnergyReport {
	if e.params.ReplenishPerTick > 0 {
		e.manager.AddEnergy(e.params.ReplenishPerTick)
	}
	if e.params.AxonReplenishPerTick > 0 {
		for _, a := range axons {
			if a != nil {
				a.AddEnergy(e.params.AxonReplenishPerTick)
			}
		}
	}

	before := e.TotalTreeEnergy(trees)
	distributed := e.manager.DistributeEnergy(trees, now, activities)
	report := EnergyReport{Distributed: distributed}
	if distributed {
		report.Delivered = float32(e.TotalTreeEnergy(trees) - before)
	}
	return report
}

// TotalTreeEnergy sums the energy held by trees.
func (e *EnergySystem) TotalTreeEnergy(trees []*growth.DendriticTree) float64 {
	e.buf = e.buf[:0]
	for _, t := range trees {
		e.buf = append(e.buf, float64(t.Energy()))
	}
	return floats.Sum(e.buf)
}
