package growth

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ComplexityScore rates the morphology of the tree:
//
//	segments × (1 + mean depth) × √terminals × (1 + depth entropy in bits)
//
// Depth entropy is taken over the depth histogram for depths 0..6.
func (t *DendriticTree) ComplexityScore() float32 {
	n := len(t.order)
	if n == 0 {
		return 0
	}

	var depthSum float64
	terminals := 0
	var hist [MaxComplexityDepthBins]float64
	for _, id := range t.order {
		seg := t.segments[id]
		depthSum += float64(seg.depth)
		if len(seg.children) == 0 {
			terminals++
		}
		if int(seg.depth) < MaxComplexityDepthBins {
			hist[seg.depth]++
		}
	}

	p := make([]float64, MaxComplexityDepthBins)
	for i, c := range hist {
		p[i] = c / float64(n)
	}
	entropy := stat.Entropy(p) / math.Ln2

	avgDepth := depthSum / float64(n)
	score := float64(n) * (1 + avgDepth) * math.Sqrt(float64(terminals)) * (1 + entropy)
	return float32(score)
}
