package growth

import (
	"fmt"
	"sync"
)

// AllocationStrategy selects how a resource pool is split among trees.
type AllocationStrategy uint8

const (
	Equal           AllocationStrategy = iota // same share for every tree
	ActivityBased                             // proportional to activity
	GrowthPotential                           // favours simple, hungry, active trees
)

func (s AllocationStrategy) String() string {
	switch s {
	case Equal:
		return "equal"
	case ActivityBased:
		return "activity"
	case GrowthPotential:
		return "growth_potential"
	default:
		return "unknown"
	}
}

// MarshalText encodes the strategy by name.
func (s AllocationStrategy) MarshalText() ([]byte, error) {
	if s > GrowthPotential {
		return nil, fmt.Errorf("invalid allocation strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strategy name.
func (s *AllocationStrategy) UnmarshalText(text []byte) error {
	v, err := ParseAllocationStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseAllocationStrategy resolves a strategy name as produced by String.
func ParseAllocationStrategy(name string) (AllocationStrategy, error) {
	switch name {
	case "equal":
		return Equal, nil
	case "activity", "activity_based":
		return ActivityBased, nil
	case "growth_potential":
		return GrowthPotential, nil
	}
	return 0, fmt.Errorf("unknown allocation strategy %q", name)
}

// DendriteResourceManager holds a shared energy pool and periodically splits
// it among dendritic trees. It is safe for concurrent use; each distribution
// runs as a single critical section.
type DendriteResourceManager struct {
	mu               sync.Mutex
	availableEnergy  float32
	strategy         AllocationStrategy
	lastDistribution float32
	interval         float32
}

// NewDendriteResourceManager creates a pool using ActivityBased allocation.
func NewDendriteResourceManager(initialEnergy float32) *DendriteResourceManager {
	return &DendriteResourceManager{
		availableEnergy: initialEnergy,
		strategy:        ActivityBased,
		interval:        DefaultDistributionInterval,
	}
}

// DistributeEnergy hands the whole pool to the trees if at least the
// distribution interval has passed since the last distribution. activities
// is index-aligned with trees; a length mismatch counts as no usable weights.
// When the chosen strategy yields no usable weights the pool is split equally
// instead.
// It reports whether a distribution happened.
func (m *DendriteResourceManager) DistributeEnergy(trees []*DendriticTree, now float32, activities []float32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(trees) == 0 || now-m.lastDistribution < m.interval {
		return false
	}

	shares := m.allocationWeights(trees, activities)
	var total float32
	for _, s := range shares {
		total += s
	}
	if total <= allocationEpsilon {
		for i := range shares {
			shares[i] = 1
		}
		total = float32(len(shares))
	}

	for i, tree := range trees {
		tree.AddEnergy(m.availableEnergy * shares[i] / total)
	}
	m.availableEnergy = 0
	m.lastDistribution = now
	return true
}

func (m *DendriteResourceManager) allocationWeights(trees []*DendriticTree, activities []float32) []float32 {
	shares := make([]float32, len(trees))
	activity := func(i int) float32 {
		if i < len(activities) && activities[i] > 0 {
			return activities[i]
		}
		return 0
	}

	switch m.strategy {
	case Equal:
		for i := range shares {
			shares[i] = 1
		}
	case ActivityBased:
		if len(activities) != len(trees) {
			break
		}
		for i := range shares {
			shares[i] = activity(i)
		}
	case GrowthPotential:
		for i, tree := range trees {
			inverseComplexity := 1 - min(tree.ComplexityScore()/MaxExpectedComplexity, 1)
			energyNeed := max(0, 1-tree.Energy()/ReferenceTreeEnergy)
			shares[i] = inverseComplexity * energyNeed * (1 + tree.growthRateModifier)
		}
	}
	return shares
}

// AddEnergy grows the pool.
func (m *DendriteResourceManager) AddEnergy(amount float32) {
	m.mu.Lock()
	m.availableEnergy += amount
	m.mu.Unlock()
}

// SetStrategy changes the allocation strategy.
func (m *DendriteResourceManager) SetStrategy(s AllocationStrategy) {
	m.mu.Lock()
	m.strategy = s
	m.mu.Unlock()
}

// SetDistributionInterval changes the minimum time between distributions.
func (m *DendriteResourceManager) SetDistributionInterval(interval float32) {
	m.mu.Lock()
	m.interval = interval
	m.mu.Unlock()
}

// AvailableEnergy returns the undistributed pool.
func (m *DendriteResourceManager) AvailableEnergy() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.availableEnergy
}

// Strategy returns the allocation strategy.
func (m *DendriteResourceManager) Strategy() AllocationStrategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// LastDistribution returns the time of the last distribution.
func (m *DendriteResourceManager) LastDistribution() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDistribution
}

// DistributionInterval returns the minimum time between distributions.
func (m *DendriteResourceManager) DistributionInterval() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}
