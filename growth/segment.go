package growth

import (
	"math"

	"github.com/google/uuid"
)

// Passive cable defaults.
const (
	DefaultAxialResistance    = 100.0   // Ω·cm
	DefaultMembraneResistance = 10000.0 // Ω·cm²
	DefaultMembraneCapacity   = 1.0     // µF/cm²
)

// CableProperties are the passive electrical properties of a segment.
type CableProperties struct {
	AxialResistance    float32 `json:"axial_resistance"`
	MembraneResistance float32 `json:"membrane_resistance"`
	MembraneCapacity   float32 `json:"membrane_capacity"`
}

// DefaultCableProperties returns the standard passive membrane.
func DefaultCableProperties() CableProperties {
	return CableProperties{
		AxialResistance:    DefaultAxialResistance,
		MembraneResistance: DefaultMembraneResistance,
		MembraneCapacity:   DefaultMembraneCapacity,
	}
}

// DendriticSegment is one cylindrical piece of a dendritic tree.
type DendriticSegment struct {
	id       uuid.UUID
	position Position
	length   float32
	diameter float32
	depth    uint8
	parentID uuid.NullUUID
	children []uuid.UUID
	synapses []*Synapse
	cable    CableProperties
}

// NewDendriticSegment creates a segment with a random id. Pass a zero
// uuid.NullUUID for root segments.
func NewDendriticSegment(pos Position, length float32, depth uint8, parent uuid.NullUUID) *DendriticSegment {
	return newDendriticSegment(uuid.New(), pos, length, depth, parent)
}

func newDendriticSegment(id uuid.UUID, pos Position, length float32, depth uint8, parent uuid.NullUUID) *DendriticSegment {
	return &DendriticSegment{
		id:       id,
		position: pos,
		length:   length,
		diameter: RootDiameter * powf(DiameterDecay, float32(depth)),
		depth:    depth,
		parentID: parent,
		cable:    DefaultCableProperties(),
	}
}

// ElectrotonicLength is the segment length in units of its length constant.
func (s *DendriticSegment) ElectrotonicLength() float32 {
	lambda := sqrtf(0.5 * s.diameter * s.cable.MembraneResistance / s.cable.AxialResistance)
	return s.length / lambda
}

// AddSynapse attaches a new synapse with a random id and returns that id.
func (s *DendriticSegment) AddSynapse(source uuid.UUID, pos Position, electrotonicDistance float32) uuid.UUID {
	id := uuid.New()
	s.addSynapse(NewSynapse(id, source, pos, electrotonicDistance))
	return id
}

func (s *DendriticSegment) addSynapse(syn *Synapse) {
	s.synapses = append(s.synapses, syn)
}

// AddChild records a child segment id.
func (s *DendriticSegment) AddChild(id uuid.UUID) {
	s.children = append(s.children, id)
}

// UpdateSynapseActivity feeds one activity sample to every synapse: 1 for
// synapses whose source is in active, 0 otherwise.
func (s *DendriticSegment) UpdateSynapseActivity(active map[uuid.UUID]struct{}, now float32) {
	for _, syn := range s.synapses {
		level := float32(0)
		if _, ok := active[syn.sourceNeuronID]; ok {
			level = 1
		}
		syn.UpdateActivity(now, level)
	}
}

// CompeteSynapses strengthens synapses above the mean activity and weakens
// those below half of it. No-op with fewer than two synapses.
func (s *DendriticSegment) CompeteSynapses() {
	if len(s.synapses) <= 1 {
		return
	}

	var total float32
	for _, syn := range s.synapses {
		total += syn.AverageActivity()
	}
	mean := total / float32(len(s.synapses))

	for _, syn := range s.synapses {
		if syn.state == Ghost {
			continue
		}
		activity := syn.AverageActivity()
		switch {
		case activity > mean:
			syn.Strengthen(CompetitionStrengthen)
		case activity < mean*0.5:
			syn.Weaken(CompetitionWeaken)
		}
	}
}

// PruneSynapses demotes long-inactive synapses and ghosts weakened ones
// whose average activity is below half of MinSynapseActivity. It returns
// the number of synapses ghosted.
func (s *DendriticSegment) PruneSynapses(now float32) int {
	for _, syn := range s.synapses {
		syn.CheckInactivity(now)
	}

	ghosted := 0
	for _, syn := range s.synapses {
		if syn.state == Weakened && syn.AverageActivity() < MinSynapseActivity*0.5 {
			if syn.ConvertToGhost() {
				ghosted++
			}
		}
	}
	return ghosted
}

// ActiveSynapseCount counts synapses in the Active state.
func (s *DendriticSegment) ActiveSynapseCount() int {
	n := 0
	for _, syn := range s.synapses {
		if syn.state == Active {
			n++
		}
	}
	return n
}

// MaintenanceCost is volume upkeep plus a flat fee per active synapse.
func (s *DendriticSegment) MaintenanceCost() float32 {
	r := s.diameter / 2
	volume := math.Pi * r * r * s.length
	return volume*SegmentCostPerVolume + float32(s.ActiveSynapseCount())*SynapseUpkeep
}

// Synapse looks up a synapse on this segment.
func (s *DendriticSegment) Synapse(id uuid.UUID) *Synapse {
	for _, syn := range s.synapses {
		if syn.id == id {
			return syn
		}
	}
	return nil
}

// ID returns the segment id.
func (s *DendriticSegment) ID() uuid.UUID { return s.id }

// Position returns the segment's distal end.
func (s *DendriticSegment) Position() Position { return s.position }

// Length returns the segment length.
func (s *DendriticSegment) Length() float32 { return s.length }

// Diameter returns the segment diameter.
func (s *DendriticSegment) Diameter() float32 { return s.diameter }

// Depth returns the branch order, 0 for roots.
func (s *DendriticSegment) Depth() uint8 { return s.depth }

// ParentID returns the parent segment id and whether there is one.
func (s *DendriticSegment) ParentID() (uuid.UUID, bool) {
	return s.parentID.UUID, s.parentID.Valid
}

// Children returns the ids of direct children. Callers must not modify it.
func (s *DendriticSegment) Children() []uuid.UUID { return s.children }

// Synapses returns the attached synapses. Callers must not modify the slice.
func (s *DendriticSegment) Synapses() []*Synapse { return s.synapses }

// Cable returns the passive membrane properties.
func (s *DendriticSegment) Cable() CableProperties { return s.cable }
