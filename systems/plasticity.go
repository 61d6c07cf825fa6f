package systems

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// FiringSet is the set of neurons that fired in a tick, kept in neuron order.
type FiringSet struct {
	ids []uuid.UUID
	set map[uuid.UUID]struct{}
}

// NewFiringSet builds a set from ids, preserving their order.
func NewFiringSet(ids []uuid.UUID) FiringSet {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return FiringSet{ids: ids, set: set}
}

// IDs returns the members in order.
func (f FiringSet) IDs() []uuid.UUID { return f.ids }

// Contains reports membership.
func (f FiringSet) Contains(id uuid.UUID) bool {
	_, ok := f.set[id]
	return ok
}

// Len returns the number of members.
func (f FiringSet) Len() int { return len(f.ids) }

// PlasticityResult summarises one tree's plasticity pass.
type PlasticityResult struct {
	Pruned      int
	Reactivated int
	Signal      float32 // integrated input from firing sources
}

// UpdatePlasticity runs activity-dependent plasticity on tree. firing holds
// the sources that fired this tick and recent those that fired within the
// reactivation window. Ghost synapses whose source is recent are revived when
// reactivate is set. The returned signal feeds the next tick's activation.
func UpdatePlasticity(tree *growth.DendriticTree, firing, recent FiringSet, reactivate bool) PlasticityResult {
	var res PlasticityResult
	if tree == nil {
		return res
	}

	// Reactivation runs first so a revived synapse sees this tick's activity.
	if reactivate && recent.Len() > 0 {
		for _, ref := range tree.FindReactivatableSynapses(recent.IDs()) {
			if tree.ReactivateSynapse(ref.SegmentID, ref.SynapseID, recent.IDs()) {
				res.Reactivated++
			}
		}
	}

	res.Pruned = tree.UpdateSynapses(firing.IDs())

	res.Signal = IntegrateInput(tree, firing)
	return res
}

// IntegrateInput sums the dendritic response to every non-ghost synapse whose
// source fired.
func IntegrateInput(tree *growth.DendriticTree, firing FiringSet) float32 {
	if firing.Len() == 0 {
		return 0
	}
	var active []uuid.UUID
	for _, segID := range tree.SegmentIDs() {
		for _, syn := range tree.Segment(segID).Synapses() {
			if syn.State() != growth.Ghost && firing.Contains(syn.SourceNeuronID()) {
				active = append(active, syn.ID())
			}
		}
	}
	if len(active) == 0 {
		return 0
	}
	return tree.ProcessSignals(active)
}
