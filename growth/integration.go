package growth

import (
	"math"

	"github.com/google/uuid"
)

// ProcessSignal returns the effective strength of a single synapse, or 0 if
// it is not in the tree.
func (t *DendriticTree) ProcessSignal(synapseID uuid.UUID) float32 {
	if syn := t.Synapse(synapseID); syn != nil {
		return syn.EffectiveStrength()
	}
	return 0
}

type clusterKey struct {
	segment uuid.UUID
	source  uuid.UUID
}

// ProcessSignals integrates the given active synapses into one somatic
// response. Inputs at the same electrotonic distance sum sublinearly,
// clusters from one source on one segment get a supralinear boost, and
// segments carrying more than SaturationOnset active inputs dampen the
// running total.
func (t *DendriticTree) ProcessSignals(activeSynapses []uuid.UUID) float32 {
	if len(activeSynapses) == 0 {
		return 0
	}
	active := make(map[uuid.UUID]struct{}, len(activeSynapses))
	for _, id := range activeSynapses {
		active[id] = struct{}{}
	}

	// Buckets and clusters keep first-seen order for reproducible sums.
	buckets := make(map[uint32]float32)
	var bucketOrder []uint32
	clusters := make(map[clusterKey][]float32)
	var clusterOrder []clusterKey
	segmentCounts := make([]int, 0, len(t.order))

	for _, id := range t.order {
		count := 0
		for _, syn := range t.segments[id].synapses {
			if _, ok := active[syn.id]; !ok {
				continue
			}
			strength := syn.EffectiveStrength()

			bucket := math.Float32bits(syn.electrotonicDistance)
			if _, seen := buckets[bucket]; !seen {
				bucketOrder = append(bucketOrder, bucket)
			}
			buckets[bucket] += strength

			key := clusterKey{segment: id, source: syn.sourceNeuronID}
			if _, seen := clusters[key]; !seen {
				clusterOrder = append(clusterOrder, key)
			}
			clusters[key] = append(clusters[key], strength)
			count++
		}
		segmentCounts = append(segmentCounts, count)
	}

	var total float32
	for _, b := range bucketOrder {
		total += powf(buckets[b], SublinearExponent)
	}

	for _, key := range clusterOrder {
		strengths := clusters[key]
		if len(strengths) < MinClusterSize {
			continue
		}
		var base float32
		for _, s := range strengths {
			base += s
		}
		factor := 1 + powf(float32(len(strengths)-2), ClusterExponent)*ClusterGain
		total += base*factor - base
	}

	for _, count := range segmentCounts {
		if count > SaturationOnset {
			total *= 1 / (1 + float32(count-SaturationOnset)*SaturationPerSynapse)
		}
	}

	return total
}
