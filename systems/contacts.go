package systems

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// AxonTip is a source neuron's axon terminal in world coordinates.
type AxonTip struct {
	Source   uuid.UUID
	Position growth.Position
	Firing   bool
}

// ContactTarget is a neuron whose dendrites can receive synapses.
type ContactTarget struct {
	ID   uuid.UUID
	Soma growth.Position
	Tree *growth.DendriticTree
}

// Contact records a synapse formed this tick.
type Contact struct {
	Source  uuid.UUID
	Target  uuid.UUID
	Segment uuid.UUID
	Synapse uuid.UUID
}

type pairKey struct {
	source, target uuid.UUID
}

// ContactLedger forms synapses where axon tips reach dendritic segments and
// bounds the number of synapses per (source, target) pair. Ghost synapses
// still count toward the bound.
type ContactLedger struct {
	radius     float32
	maxPerPair int // 0 = unbounded
	counts     map[pairKey]int
	grid       *SpatialGrid
	neighbors  []Neighbor
}

// NewContactLedger creates a ledger. A radius of 0 disables contact formation.
func NewContactLedger(radius float32, maxPerPair int) *ContactLedger {
	return &ContactLedger{
		radius:     radius,
		maxPerPair: maxPerPair,
		counts:     make(map[pairKey]int),
		grid:       NewSpatialGrid(max(radius, 1)),
	}
}

// Count returns the synapses recorded from source onto target.
func (l *ContactLedger) Count(source, target uuid.UUID) int {
	return l.counts[pairKey{source, target}]
}

// Rebuild recounts the ledger from the synapses present in the trees, e.g.
// after restoring a snapshot.
func (l *ContactLedger) Rebuild(targets []ContactTarget) {
	clear(l.counts)
	for _, t := range targets {
		if t.Tree == nil {
			continue
		}
		for _, segID := range t.Tree.SegmentIDs() {
			for _, syn := range t.Tree.Segment(segID).Synapses() {
				l.counts[pairKey{syn.SourceNeuronID(), t.ID}]++
			}
		}
	}
}

// Form creates synapses for every firing axon tip lying within the contact
// radius of another neuron's segment. A segment receives at most one synapse
// per source. Tips are processed in order, so the result is deterministic.
func (l *ContactLedger) Form(tips []AxonTip, targets []ContactTarget) []Contact {
	if l.radius <= 0 || len(tips) == 0 {
		return nil
	}

	l.grid.Clear()
	for i, t := range targets {
		if t.Tree == nil {
			continue
		}
		for _, segID := range t.Tree.SegmentIDs() {
			seg := t.Tree.Segment(segID)
			l.grid.Insert(SegmentRef{Target: i, Segment: segID, Pos: toWorld(seg.Position(), t.Soma)})
		}
	}

	var formed []Contact
	for _, tip := range tips {
		if !tip.Firing {
			continue
		}
		l.neighbors = l.grid.QueryRadiusInto(l.neighbors[:0], tip.Position, l.radius)
		for _, n := range l.neighbors {
			target := targets[n.Target]
			if target.ID == tip.Source {
				continue
			}
			key := pairKey{tip.Source, target.ID}
			if l.maxPerPair > 0 && l.counts[key] >= l.maxPerPair {
				continue
			}
			if hasSynapseFrom(target.Tree.Segment(n.Segment), tip.Source) {
				continue
			}
			synID, ok := target.Tree.AddSynapse(n.Segment, tip.Source)
			if !ok {
				continue
			}
			l.counts[key]++
			formed = append(formed, Contact{
				Source:  tip.Source,
				Target:  target.ID,
				Segment: n.Segment,
				Synapse: synID,
			})
		}
	}
	return formed
}

func hasSynapseFrom(seg *growth.DendriticSegment, source uuid.UUID) bool {
	for _, syn := range seg.Synapses() {
		if syn.SourceNeuronID() == source {
			return true
		}
	}
	return false
}
