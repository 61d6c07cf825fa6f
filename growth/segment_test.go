package growth

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentGeometry(t *testing.T) {
	root := NewDendriticSegment(Position{}, 10, 0, uuid.NullUUID{})
	assert.Equal(t, float32(2), root.Diameter())
	assert.InDelta(t, 1.0, root.ElectrotonicLength(), 1e-6)
	_, hasParent := root.ParentID()
	assert.False(t, hasParent)

	child := NewDendriticSegment(Position{}, 5, 2, uuid.NullUUID{UUID: root.ID(), Valid: true})
	assert.InDelta(t, 2*0.64, child.Diameter(), 1e-6)
	parent, ok := child.ParentID()
	assert.True(t, ok)
	assert.Equal(t, root.ID(), parent)
}

func TestSegmentMaintenanceCost(t *testing.T) {
	seg := NewDendriticSegment(Position{}, 10, 0, uuid.NullUUID{})
	volume := math.Pi * 1 * 1 * 10
	assert.InDelta(t, volume*SegmentCostPerVolume, seg.MaintenanceCost(), 1e-5)

	seg.AddSynapse(uuid.New(), Position{}, 0.5)
	seg.AddSynapse(uuid.New(), Position{}, 0.5)
	assert.InDelta(t, volume*SegmentCostPerVolume+2*SynapseUpkeep, seg.MaintenanceCost(), 1e-5)

	seg.Synapses()[0].CheckInactivity(10)
	assert.InDelta(t, volume*SegmentCostPerVolume+SynapseUpkeep, seg.MaintenanceCost(), 1e-5)
}

func TestSegmentCompetition(t *testing.T) {
	seg := NewDendriticSegment(Position{}, 10, 0, uuid.NullUUID{})
	busy, idle := uuid.New(), uuid.New()
	busyID := seg.AddSynapse(busy, Position{}, 0.5)
	idleID := seg.AddSynapse(idle, Position{}, 0.5)

	seg.UpdateSynapseActivity(map[uuid.UUID]struct{}{busy: {}}, 0)
	seg.CompeteSynapses()

	assert.Greater(t, seg.Synapse(busyID).Weight(), float32(InitialSynapseWeight))
	assert.Less(t, seg.Synapse(idleID).Weight(), float32(InitialSynapseWeight))
}

func TestSegmentCompetitionNeedsTwo(t *testing.T) {
	seg := NewDendriticSegment(Position{}, 10, 0, uuid.NullUUID{})
	id := seg.AddSynapse(uuid.New(), Position{}, 0.5)
	seg.CompeteSynapses()
	assert.Equal(t, float32(InitialSynapseWeight), seg.Synapse(id).Weight())
}

func TestSegmentPrune(t *testing.T) {
	seg := NewDendriticSegment(Position{}, 10, 0, uuid.NullUUID{})
	src := uuid.New()
	id := seg.AddSynapse(src, Position{}, 0.5)
	seg.UpdateSynapseActivity(nil, 0)

	assert.Zero(t, seg.PruneSynapses(2))
	assert.Equal(t, 1, seg.PruneSynapses(4))
	require.NotNil(t, seg.Synapse(id))
	assert.Equal(t, Ghost, seg.Synapse(id).State())
	assert.Zero(t, seg.ActiveSynapseCount())
	assert.Nil(t, seg.Synapse(uuid.New()))
}
