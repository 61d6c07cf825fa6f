package growth

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleRootTree(t *testing.T) (*DendriticTree, uuid.UUID) {
	t.Helper()
	tree := NewDendriticTree(uuid.New(), 100)
	tree.Initialize(1)
	require.Len(t, tree.RootSegmentIDs(), 1)
	return tree, tree.RootSegmentIDs()[0]
}

func TestProcessSignalSingle(t *testing.T) {
	tree, root := singleRootTree(t)
	id, _ := tree.AddSynapse(root, uuid.New())

	single := tree.ProcessSignal(id)
	assert.InDelta(t, InitialSynapseWeight*math.Exp(-1.0/ElectrotonicDecayLambda), single, 1e-7)
	assert.InDelta(t, math.Pow(float64(single), SublinearExponent), tree.ProcessSignals([]uuid.UUID{id}), 1e-6)

	assert.Zero(t, tree.ProcessSignal(uuid.New()))
	assert.Zero(t, tree.ProcessSignals(nil))
	assert.Zero(t, tree.ProcessSignals([]uuid.UUID{uuid.New()}))
}

func TestProcessSignalsIgnoresDuplicates(t *testing.T) {
	tree, root := singleRootTree(t)
	id, _ := tree.AddSynapse(root, uuid.New())

	assert.Equal(t, tree.ProcessSignals([]uuid.UUID{id}), tree.ProcessSignals([]uuid.UUID{id, id, id}))
}

func TestProcessSignalsClusterBoost(t *testing.T) {
	tree, root := singleRootTree(t)
	source := uuid.New()

	ids := make([]uuid.UUID, 5)
	var individual float32
	for i := range ids {
		ids[i], _ = tree.AddSynapse(root, source)
		individual += tree.ProcessSignal(ids[i])
	}

	assert.Greater(t, tree.ProcessSignals(ids), individual)
}

func TestProcessSignalsClusterBeatsSaturation(t *testing.T) {
	clusterTree, clusterRoot := singleRootTree(t)
	source := uuid.New()
	clusterIDs := make([]uuid.UUID, 5)
	for i := range clusterIDs {
		clusterIDs[i], _ = clusterTree.AddSynapse(clusterRoot, source)
	}

	spreadTree, spreadRoot := singleRootTree(t)
	spreadIDs := make([]uuid.UUID, 10)
	for i := range spreadIDs {
		spreadIDs[i], _ = spreadTree.AddSynapse(spreadRoot, uuid.New())
	}

	ratio := func(tree *DendriticTree, ids []uuid.UUID) float32 {
		var sum float32
		for _, id := range ids {
			sum += tree.ProcessSignal(id)
		}
		return tree.ProcessSignals(ids) / sum
	}

	assert.Greater(t, ratio(clusterTree, clusterIDs), ratio(spreadTree, spreadIDs))
}

func TestProcessSignalsSkipsDeadSynapses(t *testing.T) {
	tree, root := singleRootTree(t)
	live, _ := tree.AddSynapse(root, uuid.New())
	dead, _ := tree.AddSynapse(root, uuid.New())
	tree.Synapse(dead).CheckInactivity(10)

	assert.Zero(t, tree.ProcessSignal(dead))
	assert.Equal(t, tree.ProcessSignals([]uuid.UUID{live}), tree.ProcessSignals([]uuid.UUID{live, dead}))
}

func TestComplexityScore(t *testing.T) {
	empty := NewDendriticTree(uuid.New(), 0)
	assert.Zero(t, empty.ComplexityScore())

	single := NewDendriticTree(uuid.New(), 0)
	single.Initialize(1)
	assert.InDelta(t, 1, single.ComplexityScore(), 1e-6)

	flat := NewDendriticTree(uuid.New(), 0)
	flat.Initialize(4)
	assert.InDelta(t, 8, flat.ComplexityScore(), 1e-5)

	branched := NewDendriticTree(uuid.New(), 0)
	branched.Initialize(2)
	addChild(branched, branched.RootSegmentIDs()[0], 5)
	entropy := -(2.0/3)*math.Log2(2.0/3) - (1.0/3)*math.Log2(1.0/3)
	want := 3 * (1 + 1.0/3) * math.Sqrt(2) * (1 + entropy)
	assert.InDelta(t, want, branched.ComplexityScore(), 1e-4)
}

func TestComplexityGrowsWithBranching(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 300)
	tree.Initialize(3)
	before := tree.ComplexityScore()
	for i := 0; i < 60; i++ {
		tree.Grow(nil, 1, 0.4)
	}
	assert.Greater(t, tree.ComplexityScore(), before)
}
