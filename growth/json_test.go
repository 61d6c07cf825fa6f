package growth

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeJSONResumesIdentically(t *testing.T) {
	tree := NewDendriticTreeWithSeed(uuid.New(), 200, 5)
	tree.Initialize(3)
	source := uuid.New()
	for i := 0; i < 20; i++ {
		tree.Grow(nil, 0.5, 0.6)
	}
	tree.AddSynapse(tree.SegmentIDs()[4], source)
	tree.AddSynapse(tree.SegmentIDs()[4], uuid.New())
	tree.UpdateSynapses([]uuid.UUID{source})

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var restored DendriticTree
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, tree.SegmentIDs(), restored.SegmentIDs())
	assert.Equal(t, tree.RootSegmentIDs(), restored.RootSegmentIDs())
	assert.Equal(t, tree.ConnectionCount(), restored.ConnectionCount())
	assert.Equal(t, tree.ComplexityScore(), restored.ComplexityScore())
	assert.NotZero(t, tree.Signature())
	assert.Equal(t, tree.Signature(), restored.Signature())

	for i := 0; i < 20; i++ {
		assert.Equal(t, tree.Grow(nil, 0.5, 0.6), restored.Grow(nil, 0.5, 0.6))
	}
	a, b := tree.AddSynapse(tree.SegmentIDs()[0], source)
	c, d := restored.AddSynapse(restored.SegmentIDs()[0], source)
	assert.Equal(t, a, c)
	assert.Equal(t, b, d)
	assert.Equal(t, tree.SegmentIDs(), restored.SegmentIDs())
	assert.Equal(t, tree.Energy(), restored.Energy())
	assert.Equal(t, tree.Signature(), restored.Signature())
}

func TestTreeJSONRejectsDanglingParent(t *testing.T) {
	tree := NewDendriticTree(uuid.New(), 10)
	tree.Initialize(1)
	addChild(tree, tree.RootSegmentIDs()[0], 4)

	j := tree.ToJSON()
	j.Segments = j.Segments[1:]
	_, err := j.FromJSON()
	assert.Error(t, err)

	j = tree.ToJSON()
	j.Segments = append(j.Segments, j.Segments[0])
	_, err = j.FromJSON()
	assert.Error(t, err)
}

func TestAxonJSONRoundTrip(t *testing.T) {
	axon := NewAxonGrowth(NewPosition(1, 1, 1), 100)
	factors := []GrowthFactor{NewGrowthFactor(NewPosition(5, 3, 0), 0.7, 10, Attractive)}
	for i := 0; i < 8; i++ {
		axon.Grow(factors, 0.5)
	}

	data, err := json.Marshal(axon)
	require.NoError(t, err)
	var restored AxonGrowth
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, axon.Segments(), restored.Segments())
	assert.Equal(t, axon.Measurements(), restored.Measurements())
	assert.Equal(t, axon.Grow(factors, 0.5), restored.Grow(factors, 0.5))
	assert.Equal(t, axon.Position(), restored.Position())
}

func TestSynapseStateJSON(t *testing.T) {
	s := NewSynapse(uuid.New(), uuid.New(), Position{}, 0.3)
	s.UpdateActivity(1, 1)
	s.CheckInactivity(10)

	data, err := json.Marshal(s.ToJSON())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"weakened"`)

	var j SynapseJSON
	require.NoError(t, json.Unmarshal(data, &j))
	back := j.FromJSON()
	assert.Equal(t, Weakened, back.State())
	assert.Equal(t, s.ActivityHistory(), back.ActivityHistory())
	assert.Equal(t, s.Weight(), back.Weight())
}

func TestResourceManagerJSON(t *testing.T) {
	m := NewDendriteResourceManager(70)
	m.SetStrategy(GrowthPotential)
	m.SetDistributionInterval(2)

	data, err := json.Marshal(m.ToJSON())
	require.NoError(t, err)
	var j ResourceManagerJSON
	require.NoError(t, json.Unmarshal(data, &j))
	back := j.FromJSON()

	assert.Equal(t, float32(70), back.AvailableEnergy())
	assert.Equal(t, GrowthPotential, back.Strategy())
	assert.Equal(t, float32(2), back.DistributionInterval())
}
