package growth

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// AxonGrowthJSON is the JSON-serializable form of AxonGrowth.
type AxonGrowthJSON struct {
	Position     Position            `json:"position"`
	Origin       Position            `json:"origin"`
	Direction    [3]float64          `json:"direction"`
	Energy       float32             `json:"energy"`
	Segments     []Position          `json:"segments"`
	Length       float32             `json:"length"`
	Measurements []GrowthMeasurement `json:"measurements"`
	Time         float32             `json:"time"`
}

// ToJSON converts AxonGrowth to its JSON form.
func (a *AxonGrowth) ToJSON() *AxonGrowthJSON {
	if a == nil {
		return nil
	}
	return &AxonGrowthJSON{
		Position:     a.position,
		Origin:       a.origin,
		Direction:    [3]float64{a.direction.X, a.direction.Y, a.direction.Z},
		Energy:       a.energy,
		Segments:     append([]Position(nil), a.segments...),
		Length:       a.length,
		Measurements: append([]GrowthMeasurement(nil), a.measurements...),
		Time:         a.time,
	}
}

// FromJSON converts the JSON form back to AxonGrowth.
func (j *AxonGrowthJSON) FromJSON() *AxonGrowth {
	if j == nil {
		return nil
	}
	segments := append([]Position(nil), j.Segments...)
	if len(segments) == 0 {
		segments = []Position{j.Origin}
	}
	return &AxonGrowth{
		position:     j.Position,
		origin:       j.Origin,
		direction:    r3.Vec{X: j.Direction[0], Y: j.Direction[1], Z: j.Direction[2]},
		energy:       j.Energy,
		segments:     segments,
		length:       j.Length,
		measurements: append([]GrowthMeasurement(nil), j.Measurements...),
		time:         j.Time,
	}
}

// MarshalJSON implements json.Marshaler.
func (a *AxonGrowth) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToJSON())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AxonGrowth) UnmarshalJSON(data []byte) error {
	var j AxonGrowthJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*a = *j.FromJSON()
	return nil
}

// SynapseJSON is the JSON-serializable form of Synapse.
type SynapseJSON struct {
	ID                   uuid.UUID    `json:"id"`
	SourceNeuronID       uuid.UUID    `json:"source_neuron_id"`
	Weight               float32      `json:"weight"`
	Position             Position     `json:"position"`
	ElectrotonicDistance float32      `json:"electrotonic_distance"`
	State                SynapseState `json:"state"`
	ActivityHistory      []float32    `json:"activity_history"`
	LastActive           float32      `json:"last_active"`
	Plasticity           float32      `json:"plasticity"`
}

// ToJSON converts Synapse to its JSON form.
func (s *Synapse) ToJSON() *SynapseJSON {
	return &SynapseJSON{
		ID:                   s.id,
		SourceNeuronID:       s.sourceNeuronID,
		Weight:               s.weight,
		Position:             s.position,
		ElectrotonicDistance: s.electrotonicDistance,
		State:                s.state,
		ActivityHistory:      append([]float32(nil), s.activityHistory...),
		LastActive:           s.lastActive,
		Plasticity:           s.plasticity,
	}
}

// FromJSON converts the JSON form back to Synapse. History beyond
// ActivityHistorySize keeps the most recent samples.
func (j *SynapseJSON) FromJSON() *Synapse {
	history := j.ActivityHistory
	if len(history) > ActivityHistorySize {
		history = history[len(history)-ActivityHistorySize:]
	}
	h := make([]float32, len(history), ActivityHistorySize)
	copy(h, history)
	return &Synapse{
		id:                   j.ID,
		sourceNeuronID:       j.SourceNeuronID,
		weight:               j.Weight,
		position:             j.Position,
		electrotonicDistance: j.ElectrotonicDistance,
		state:                j.State,
		activityHistory:      h,
		lastActive:           j.LastActive,
		plasticity:           j.Plasticity,
	}
}

// DendriticSegmentJSON is the JSON-serializable form of DendriticSegment.
type DendriticSegmentJSON struct {
	ID       uuid.UUID       `json:"id"`
	Position Position        `json:"position"`
	Length   float32         `json:"length"`
	Diameter float32         `json:"diameter"`
	Depth    uint8           `json:"depth"`
	ParentID uuid.NullUUID   `json:"parent_id"`
	Children []uuid.UUID     `json:"children"`
	Synapses []*SynapseJSON  `json:"synapses"`
	Cable    CableProperties `json:"cable"`
}

// ToJSON converts DendriticSegment to its JSON form.
func (s *DendriticSegment) ToJSON() *DendriticSegmentJSON {
	j := &DendriticSegmentJSON{
		ID:       s.id,
		Position: s.position,
		Length:   s.length,
		Diameter: s.diameter,
		Depth:    s.depth,
		ParentID: s.parentID,
		Children: append([]uuid.UUID(nil), s.children...),
		Synapses: make([]*SynapseJSON, len(s.synapses)),
		Cable:    s.cable,
	}
	for i, syn := range s.synapses {
		j.Synapses[i] = syn.ToJSON()
	}
	return j
}

// FromJSON converts the JSON form back to DendriticSegment.
func (j *DendriticSegmentJSON) FromJSON() *DendriticSegment {
	s := &DendriticSegment{
		id:       j.ID,
		position: j.Position,
		length:   j.Length,
		diameter: j.Diameter,
		depth:    j.Depth,
		parentID: j.ParentID,
		children: append([]uuid.UUID(nil), j.Children...),
		synapses: make([]*Synapse, len(j.Synapses)),
		cable:    j.Cable,
	}
	for i, syn := range j.Synapses {
		s.synapses[i] = syn.FromJSON()
	}
	return s
}

// DendriticTreeJSON is the JSON-serializable form of DendriticTree.
// Segments are stored in insertion order. The path-length cache is not
// persisted.
type DendriticTreeJSON struct {
	NeuronID           uuid.UUID               `json:"neuron_id"`
	Segments           []*DendriticSegmentJSON `json:"segments"`
	RootSegments       []uuid.UUID             `json:"root_segments"`
	Energy             float32                 `json:"energy"`
	GrowthRateModifier float32                 `json:"growth_rate_modifier"`
	ElectrotonicLength float32                 `json:"electrotonic_length"`
	ConnectionCount    int                     `json:"connection_count"`
	Time               float32                 `json:"time"`
	Seed               uint64                  `json:"seed"`
	NextID             uint64                  `json:"next_id"`
	Signature          uint64                  `json:"tree_signature"`
}

// ToJSON converts DendriticTree to its JSON form.
func (t *DendriticTree) ToJSON() *DendriticTreeJSON {
	if t == nil {
		return nil
	}
	j := &DendriticTreeJSON{
		NeuronID:           t.neuronID,
		Segments:           make([]*DendriticSegmentJSON, len(t.order)),
		RootSegments:       append([]uuid.UUID(nil), t.roots...),
		Energy:             t.energy,
		GrowthRateModifier: t.growthRateModifier,
		ElectrotonicLength: t.electrotonicLength,
		ConnectionCount:    t.connectionCount,
		Time:               t.time,
		Seed:               t.seed,
		NextID:             t.nextID,
		Signature:          t.signature,
	}
	for i, id := range t.order {
		j.Segments[i] = t.segments[id].ToJSON()
	}
	return j
}

// FromJSON rebuilds a DendriticTree, checking that every referenced segment
// exists and ids are unique.
func (j *DendriticTreeJSON) FromJSON() (*DendriticTree, error) {
	t := NewDendriticTreeWithSeed(j.NeuronID, j.Energy, j.Seed)
	t.growthRateModifier = j.GrowthRateModifier
	t.electrotonicLength = j.ElectrotonicLength
	t.time = j.Time
	t.nextID = j.NextID

	for _, sj := range j.Segments {
		if sj == nil {
			return nil, fmt.Errorf("tree %s: nil segment", j.NeuronID)
		}
		if _, dup := t.segments[sj.ID]; dup {
			return nil, fmt.Errorf("tree %s: duplicate segment %s", j.NeuronID, sj.ID)
		}
		t.segments[sj.ID] = sj.FromJSON()
		t.order = append(t.order, sj.ID)
	}

	for _, id := range t.order {
		seg := t.segments[id]
		if seg.parentID.Valid {
			if _, ok := t.segments[seg.parentID.UUID]; !ok {
				return nil, fmt.Errorf("tree %s: segment %s has unknown parent %s", j.NeuronID, id, seg.parentID.UUID)
			}
		}
		for _, c := range seg.children {
			if _, ok := t.segments[c]; !ok {
				return nil, fmt.Errorf("tree %s: segment %s has unknown child %s", j.NeuronID, id, c)
			}
		}
	}
	for _, id := range j.RootSegments {
		if _, ok := t.segments[id]; !ok {
			return nil, fmt.Errorf("tree %s: unknown root segment %s", j.NeuronID, id)
		}
		t.roots = append(t.roots, id)
	}

	t.updateConnectionCount()
	t.signature = j.Signature
	return t, nil
}

// MarshalJSON implements json.Marshaler.
func (t *DendriticTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToJSON())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *DendriticTree) UnmarshalJSON(data []byte) error {
	var j DendriticTreeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	restored, err := j.FromJSON()
	if err != nil {
		return err
	}
	*t = *restored
	return nil
}

// ResourceManagerJSON is the JSON-serializable form of DendriteResourceManager.
type ResourceManagerJSON struct {
	AvailableEnergy      float32            `json:"available_energy"`
	Strategy             AllocationStrategy `json:"strategy"`
	LastDistribution     float32            `json:"last_distribution"`
	DistributionInterval float32            `json:"distribution_interval"`
}

// ToJSON converts the manager to its JSON form.
func (m *DendriteResourceManager) ToJSON() *ResourceManagerJSON {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &ResourceManagerJSON{
		AvailableEnergy:      m.availableEnergy,
		Strategy:             m.strategy,
		LastDistribution:     m.lastDistribution,
		DistributionInterval: m.interval,
	}
}

// FromJSON converts the JSON form back to a manager.
func (j *ResourceManagerJSON) FromJSON() *DendriteResourceManager {
	return &DendriteResourceManager{
		availableEnergy:  j.AvailableEnergy,
		strategy:         j.Strategy,
		lastDistribution: j.LastDistribution,
		interval:         j.DistributionInterval,
	}
}
