package growth

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addChild grafts a segment under parentID without going through Grow.
func addChild(tree *DendriticTree, parentID uuid.UUID, length float32) uuid.UUID {
	parent := tree.segments[parentID]
	child := newDendriticSegment(tree.newID(), parent.position, length, parent.depth+1, uuid.NullUUID{UUID: parentID, Valid: true})
	parent.children = append(parent.children, child.id)
	tree.insert(child)
	return child.id
}

// uncachedPathLength recomputes the electrotonic path length from the cable
// formula without touching the cache.
func uncachedPathLength(tree *DendriticTree, id uuid.UUID) float32 {
	seg, ok := tree.segments[id]
	if !ok {
		return 0
	}
	lambda := float32(math.Sqrt(float64(0.5 * seg.diameter * seg.cable.MembraneResistance / seg.cable.AxialResistance)))
	own := seg.length / lambda
	if !seg.parentID.Valid {
		return own
	}
	return own + uncachedPathLength(tree, seg.parentID.UUID)
}

func TestTreeInitialize(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(4)

	require.Equal(t, 4, tree.SegmentCount())
	require.Len(t, tree.RootSegmentIDs(), 4)

	first := tree.Segment(tree.RootSegmentIDs()[0])
	assert.InDelta(t, 5, first.Position().X, 1e-5)
	assert.InDelta(t, 0, first.Position().Z, 1e-5)
	second := tree.Segment(tree.RootSegmentIDs()[1])
	assert.InDelta(t, 5, second.Position().Y, 1e-5)
	assert.InDelta(t, 2, second.Position().Z, 1e-5)

	for _, id := range tree.RootSegmentIDs() {
		seg := tree.Segment(id)
		assert.Equal(t, float32(PrimaryDendriteLength), seg.Length())
		assert.Zero(t, seg.Depth())
	}
	assert.InDelta(t, 0, tree.Position().X, 1e-5)
	assert.InDelta(t, 0, tree.Position().Y, 1e-5)
	assert.InDelta(t, 1, tree.Position().Z, 1e-5)
}

func TestTreeGrowthAccounting(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(3)

	grown := 0
	for i := 0; i < 40; i++ {
		before := tree.Energy()
		count := tree.SegmentCount()
		ok := tree.Grow(nil, 1, 0.5)
		if !ok {
			assert.Equal(t, before, tree.Energy())
			assert.Equal(t, count, tree.SegmentCount())
			continue
		}
		grown++
		require.Equal(t, count+1, tree.SegmentCount())
		newest := tree.Segment(tree.SegmentIDs()[count])
		wantCost := DendriteEnergyPerGrowthUnit * math.Pow(BranchCostGrowth, float64(newest.Depth()-1))
		assert.InDelta(t, wantCost, before-tree.Energy(), 1e-4)
	}
	assert.Greater(t, grown, 10)
	assert.Equal(t, float32(40), tree.Time())
}

func TestTreeStructure(t *testing.T) {
	tree := NewDendriticTreeWithSeed(uuid.New(), 500, 7)
	tree.Initialize(4)
	factors := []GrowthFactor{NewGrowthFactor(NewPosition(20, 0, 0), 0.8, 40, Attractive)}
	for i := 0; i < 200; i++ {
		tree.Grow(factors, 0.5, 0.7)
	}

	roots := make(map[uuid.UUID]bool)
	for _, id := range tree.RootSegmentIDs() {
		roots[id] = true
	}
	for _, id := range tree.SegmentIDs() {
		seg := tree.Segment(id)
		require.NotNil(t, seg)
		assert.LessOrEqual(t, seg.Depth(), uint8(MaxBranchingDepth))
		assert.InDelta(t, RootDiameter*math.Pow(DiameterDecay, float64(seg.Depth())), seg.Diameter(), 1e-5)

		parentID, ok := seg.ParentID()
		assert.Equal(t, !roots[id], ok, "only roots lack a parent")
		if !ok {
			continue
		}
		parent := tree.Segment(parentID)
		require.NotNil(t, parent)
		assert.Equal(t, parent.Depth()+1, seg.Depth())
		assert.Contains(t, parent.Children(), id)
		assert.InDelta(t, BranchBaseLength*math.Pow(BranchLengthDecay, float64(seg.Depth())), seg.Length(), 1e-4)
	}
}

func TestTreeLowEnergyStillAdvancesTime(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), DendriteMinEnergy-1)
	tree.Initialize(2)

	assert.False(t, tree.Grow(nil, 0.5, 1))
	assert.Equal(t, 2, tree.SegmentCount())
	assert.Equal(t, float32(0.5), tree.Time())
}

func TestTreeNoCandidates(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	assert.False(t, tree.Grow(nil, 1, 0))
	assert.Equal(t, float32(100), tree.Energy())
}

func TestTreeDeterminism(t *testing.T) {
	id := uuid.New()
	factors := []GrowthFactor{
		NewGrowthFactor(NewPosition(10, 10, 0), 0.6, 30, Attractive),
		NewGrowthFactor(NewPosition(-5, 0, 2), 0.9, 6, Repulsive),
	}
	run := func() *DendriticTree {
		tree := NewDendriticTreeWithSeed(id, 150, 99)
		tree.Initialize(3)
		for i := 0; i < 80; i++ {
			tree.Grow(factors, 0.5, float32(i%5)/5)
		}
		return tree
	}

	a, b := run(), run()
	require.Equal(t, a.SegmentIDs(), b.SegmentIDs())
	for _, segID := range a.SegmentIDs() {
		assert.Equal(t, a.Segment(segID).Position(), b.Segment(segID).Position())
	}
	assert.Equal(t, a.Energy(), b.Energy())
	assert.Equal(t, a.ComplexityScore(), b.ComplexityScore())
}

func TestTreeSeedsDiverge(t *testing.T) {
	id := uuid.New()
	a := NewDendriticTreeWithSeed(id, 150, 1)
	b := NewDendriticTreeWithSeed(id, 150, 2)
	a.Initialize(3)
	b.Initialize(3)
	for i := 0; i < 30; i++ {
		a.Grow(nil, 1, 0.5)
		b.Grow(nil, 1, 0.5)
	}

	same := true
	for _, segID := range a.SegmentIDs() {
		other := b.Segment(segID)
		if other == nil || other.Position() != a.Segment(segID).Position() {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestTreePathLengthCache(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(2)
	root := tree.RootSegmentIDs()[0]
	child := addChild(tree, root, 5)
	grandchild := addChild(tree, child, 3)

	// Root: 10/sqrt(0.5·2·10000/100) = 1. Child diameter 1.6 gives λ = √80,
	// grandchild diameter 1.28 gives λ = 8.
	wantChild := 1 + 5/math.Sqrt(80)
	wantGrandchild := wantChild + 3.0/8
	assert.InDelta(t, 1.0, tree.PathLength(root), 1e-6)
	assert.InDelta(t, wantChild, tree.PathLength(child), 1e-5)
	assert.InDelta(t, wantGrandchild, tree.PathLength(grandchild), 1e-5)
	assert.Zero(t, tree.PathLength(uuid.New()))

	cached := tree.PathLength(grandchild)
	tree.ClearPathLengthCache()
	assert.Equal(t, cached, tree.PathLength(grandchild))

	sig := tree.Signature()
	for i := 0; i < 30; i++ {
		tree.Grow(nil, 1, 0.3)
	}
	assert.NotEqual(t, sig, tree.Signature())
	for _, id := range tree.SegmentIDs() {
		assert.InDelta(t, uncachedPathLength(tree, id), tree.PathLength(id), 1e-5)
	}
	tree.ClearPathLengthCache()
	for _, id := range tree.SegmentIDs() {
		assert.InDelta(t, uncachedPathLength(tree, id), tree.PathLength(id), 1e-5)
	}
}

func TestTreePathLengthDepthOneChild(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(1)
	root := tree.RootSegmentIDs()[0]
	child := addChild(tree, root, 6.8)

	assert.InDelta(t, tree.Segment(root).ElectrotonicLength(), tree.PathLength(root), 1e-7)
	assert.InDelta(t, 1+6.8/math.Sqrt(80), tree.PathLength(child), 1e-5)
}

func TestTreeSynapseLifecycle(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(2)
	seg := tree.RootSegmentIDs()[0]
	busy, quiet := uuid.New(), uuid.New()

	busyID, ok := tree.AddSynapse(seg, busy)
	require.True(t, ok)
	quietID, ok := tree.AddSynapse(seg, quiet)
	require.True(t, ok)
	assert.Equal(t, 2, tree.ConnectionCount())

	_, ok = tree.AddSynapse(uuid.New(), busy)
	assert.False(t, ok)

	pruned := 0
	for i := 0; i < 10; i++ {
		pruned += tree.UpdateSynapses([]uuid.UUID{busy})
		tree.AdvanceTime(1)
	}

	assert.Equal(t, 1, pruned)
	assert.Equal(t, Ghost, tree.Synapse(quietID).State())
	assert.Equal(t, Active, tree.Synapse(busyID).State())
	assert.Greater(t, tree.Synapse(busyID).Weight(), float32(InitialSynapseWeight))
	assert.Equal(t, 1, tree.ConnectionCount())

	assert.Empty(t, tree.FindReactivatableSynapses([]uuid.UUID{busy}))
	refs := tree.FindReactivatableSynapses([]uuid.UUID{quiet})
	require.Len(t, refs, 1)
	assert.Equal(t, SynapseRef{SegmentID: seg, SynapseID: quietID}, refs[0])

	assert.False(t, tree.ReactivateSynapse(seg, quietID, []uuid.UUID{busy}), "source not recently active")
	assert.True(t, tree.ReactivateSynapse(seg, quietID, []uuid.UUID{quiet}))
	assert.Equal(t, Active, tree.Synapse(quietID).State())
	assert.Equal(t, float32(GhostReactivationWeight), tree.Synapse(quietID).Weight())
	assert.Equal(t, 2, tree.ConnectionCount())

	assert.False(t, tree.ReactivateSynapse(seg, quietID, []uuid.UUID{quiet}), "already active")
	assert.False(t, tree.ReactivateSynapse(uuid.New(), quietID, []uuid.UUID{quiet}))
}

func TestTreeSynapseElectrotonicDistance(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(1)
	root := tree.RootSegmentIDs()[0]

	id, _ := tree.AddSynapse(root, uuid.New())
	assert.InDelta(t, 1.0, tree.Synapse(id).ElectrotonicDistance(), 1e-6)
	assert.Equal(t, tree.Segment(root).Position(), tree.Synapse(id).Position())

	deep := addChild(tree, addChild(tree, root, 8), 8)
	farID, _ := tree.AddSynapse(deep, uuid.New())
	assert.Equal(t, float32(MaxElectrotonicLength), tree.Synapse(farID).ElectrotonicDistance())
}

func TestTreeGrowthRateModifier(t *testing.T) {
	tests := []struct {
		activity float32
		want     float32
	}{
		{0, 0.5},
		{1, 1.5},
		{5, MaxGrowthRateModifier},
	}
	for _, tt := range tests {
		tree := NewDendriticTree(uuid.New(), 100)
		tree.Initialize(1)
		tree.Grow(nil, 1, tt.activity)
		assert.Equal(t, tt.want, tree.GrowthRateModifier(), "activity %v", tt.activity)
	}
}

func TestTreeConnectivityFactor(t *testing.T) {
	tests := []struct {
		synapses int
		want     float32
	}{
		{0, 1.5},                          // underconnected
		{OptimalConnectionCount, 1},       // on target
		{OptimalConnectionCount * 2, 0.5}, // overconnected
	}
	for _, tt := range tests {
		tree := NewDendriticTree(uuid.New(), 100)
		tree.Initialize(1)
		root := tree.RootSegmentIDs()[0]
		for i := 0; i < tt.synapses; i++ {
			tree.AddSynapse(root, uuid.New())
		}
		assert.Equal(t, tt.synapses, tree.ConnectionCount())
		assert.Equal(t, tt.want, tree.connectivityFactor(), "%d synapses", tt.synapses)
	}
}

func TestTreeMaintenanceCost(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(2)
	var want float32
	for _, id := range tree.SegmentIDs() {
		want += tree.Segment(id).MaintenanceCost()
	}
	assert.Equal(t, want, tree.MaintenanceCost())
	var g Grower = tree
	assert.Equal(t, want, g.MaintenanceCost())
}
