package growth

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTreeSeed seeds trees created with NewDendriticTree.
const DefaultTreeSeed = 42

// DendriticTree is the dendritic arbor of one neuron: a forest of segments
// rooted at the primary dendrites.
//
// Segments live in a map keyed by id, with an insertion-ordered id list so
// that every traversal, and therefore every floating-point reduction, runs
// in the same order for the same history.
type DendriticTree struct {
	neuronID           uuid.UUID
	segments           map[uuid.UUID]*DendriticSegment
	order              []uuid.UUID
	roots              []uuid.UUID
	energy             float32
	growthRateModifier float32
	electrotonicLength float32
	connectionCount    int
	time               float32
	seed               uint64
	nextID             uint64

	pathLengths map[uuid.UUID]float32
	signature   uint64
}

// NewDendriticTree creates an empty tree seeded with DefaultTreeSeed.
func NewDendriticTree(neuronID uuid.UUID, initialEnergy float32) *DendriticTree {
	return NewDendriticTreeWithSeed(neuronID, initialEnergy, DefaultTreeSeed)
}

// NewDendriticTreeWithSeed creates an empty tree with an explicit seed.
func NewDendriticTreeWithSeed(neuronID uuid.UUID, initialEnergy float32, seed uint64) *DendriticTree {
	return &DendriticTree{
		neuronID:           neuronID,
		segments:           make(map[uuid.UUID]*DendriticSegment),
		energy:             initialEnergy,
		growthRateModifier: 1,
		electrotonicLength: 0.8,
		seed:               seed,
		pathLengths:        make(map[uuid.UUID]float32),
	}
}

// Initialize adds count primary dendrites arranged on a ring around the soma,
// alternating between two z levels.
func (t *DendriticTree) Initialize(count int) {
	for i := 0; i < count; i++ {
		angle := float64(i) / float64(count) * 2 * math.Pi
		pos := NewPosition(
			float32(math.Cos(angle))*PrimaryDendriteRadius,
			float32(math.Sin(angle))*PrimaryDendriteRadius,
			float32(i%2)*2,
		)
		seg := newDendriticSegment(t.newID(), pos, PrimaryDendriteLength, 0, uuid.NullUUID{})
		t.insert(seg)
		t.roots = append(t.roots, seg.id)
	}
}

// newID derives the next deterministic id from the neuron id.
func (t *DendriticTree) newID() uuid.UUID {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], t.nextID)
	t.nextID++
	return uuid.NewSHA1(t.neuronID, b[:])
}

func (t *DendriticTree) insert(seg *DendriticSegment) {
	t.segments[seg.id] = seg
	t.order = append(t.order, seg.id)
	t.invalidate()
}

// invalidate drops every cached path length after a structural change.
func (t *DendriticTree) invalidate() {
	clear(t.pathLengths)
	t.signature++
}

// Grow attempts one growth step: possibly adds a single new branch. Simulated
// time always advances by timeStep; it returns whether a segment was added.
func (t *DendriticTree) Grow(factors []GrowthFactor, timeStep, activity float32) bool {
	t.time += timeStep

	if t.energy < DendriteMinEnergy {
		return false
	}

	t.growthRateModifier = min(0.5+activity, MaxGrowthRateModifier)
	p := BaseBranchingProbability * t.growthRateModifier * t.connectivityFactor()

	// NOTE: this gate is inverted relative to the usual convention and is
	// reproduced as-is from the model it ports. A draw below p aborts the
	// step, so p acts as an inhibition probability: higher activity or fewer
	// connections make branching rarer, not more common.
	if stepRand(t.seed, t.time).Float32() < p {
		return false
	}

	parent := t.selectGrowthSegment()
	if parent == nil {
		return false
	}

	cost := DendriteEnergyPerGrowthUnit * powf(BranchCostGrowth, float32(parent.depth))
	if t.energy < cost {
		return false
	}

	dir := t.growthDirection(parent.position, factors)
	depth := parent.depth + 1
	length := BranchBaseLength * powf(BranchLengthDecay, float32(depth))
	child := newDendriticSegment(
		t.newID(),
		parent.position.Translate(dir, length),
		length,
		depth,
		uuid.NullUUID{UUID: parent.id, Valid: true},
	)

	parent.AddChild(child.id)
	t.insert(child)
	t.energy -= cost
	return true
}

// connectivityFactor scales branching against the target connection count:
// overconnected trees branch less, underconnected ones more.
func (t *DendriticTree) connectivityFactor() float32 {
	ratio := float32(t.connectionCount) / OptimalConnectionCount
	switch {
	case ratio > 1.2:
		return 0.5
	case ratio < 0.8:
		return 1.5
	default:
		return 1
	}
}

// selectGrowthSegment picks a branch site among segments shallower than
// MaxBranchingDepth, favouring segments with few children and shallow depth.
func (t *DendriticTree) selectGrowthSegment() *DendriticSegment {
	candidates := make([]*DendriticSegment, 0, len(t.order))
	weights := make([]float64, 0, len(t.order))
	var total float64

	for _, id := range t.order {
		seg := t.segments[id]
		if seg.depth >= MaxBranchingDepth {
			continue
		}
		w := float64(max(1, 3-len(seg.children)))
		if seg.depth > 2 {
			w *= 0.7
		}
		candidates = append(candidates, seg)
		weights = append(weights, w)
		total += w
	}
	if len(candidates) == 0 {
		return nil
	}

	r := siteRand(t.seed, t.time).Float64() * total
	for i, w := range weights {
		if r < w {
			return candidates[i]
		}
		r -= w
	}
	return candidates[len(candidates)-1]
}

// growthDirection sums factor pulls at from, then perturbs the result with
// seeded noise and renormalizes.
func (t *DendriticTree) growthDirection(from Position, factors []GrowthFactor) r3.Vec {
	var dir r3.Vec
	here := from.Vec()
	for _, f := range factors {
		influence := f.InfluenceAt(from)
		if influence == 0 {
			continue
		}
		toFactor := r3.Sub(f.Position.Vec(), here)
		distance := r3.Norm(toFactor)
		if distance > 0.001 {
			dir = r3.Add(dir, r3.Scale(float64(influence)/distance, toFactor))
		}
	}
	dir, _ = normalizeOr(dir, 0.001)

	rng := stepRand(t.seed, t.time)
	dir.X += rng.Float64()*0.2 - 0.1
	dir.Y += rng.Float64()*0.2 - 0.1
	dir.Z += rng.Float64()*0.2 - 0.1
	dir, _ = normalizeOr(dir, 0)
	return dir
}

// PathLength is the electrotonic distance from the soma to the end of the
// segment: its own electrotonic length plus its parent's path length.
// Unknown ids yield 0. Results are cached until the structure changes.
func (t *DendriticTree) PathLength(id uuid.UUID) float32 {
	if v, ok := t.pathLengths[id]; ok {
		return v
	}
	seg, ok := t.segments[id]
	if !ok {
		return 0
	}
	total := seg.ElectrotonicLength()
	if seg.parentID.Valid {
		total += t.PathLength(seg.parentID.UUID)
	}
	t.pathLengths[id] = total
	return total
}

// ClearPathLengthCache drops all memoized path lengths.
func (t *DendriticTree) ClearPathLengthCache() {
	t.invalidate()
}

// AddSynapse attaches a synapse from source onto the segment, using the
// segment's path length as electrotonic distance.
func (t *DendriticTree) AddSynapse(segmentID, source uuid.UUID) (uuid.UUID, bool) {
	seg, ok := t.segments[segmentID]
	if !ok {
		return uuid.Nil, false
	}
	id := t.newID()
	seg.addSynapse(NewSynapse(id, source, seg.position, t.PathLength(segmentID)))
	t.updateConnectionCount()
	return id, true
}

// UpdateSynapses runs one plasticity pass at the tree's current time:
// activity update, competition, then pruning on every segment. It returns
// the number of synapses ghosted.
func (t *DendriticTree) UpdateSynapses(activeSources []uuid.UUID) int {
	active := make(map[uuid.UUID]struct{}, len(activeSources))
	for _, id := range activeSources {
		active[id] = struct{}{}
	}

	pruned := 0
	for _, id := range t.order {
		seg := t.segments[id]
		seg.UpdateSynapseActivity(active, t.time)
		seg.CompeteSynapses()
		pruned += seg.PruneSynapses(t.time)
	}
	t.updateConnectionCount()
	return pruned
}

func (t *DendriticTree) updateConnectionCount() {
	n := 0
	for _, id := range t.order {
		n += t.segments[id].ActiveSynapseCount()
	}
	t.connectionCount = n
}

// SynapseRef addresses a synapse within a tree.
type SynapseRef struct {
	SegmentID uuid.UUID `json:"segment_id"`
	SynapseID uuid.UUID `json:"synapse_id"`
}

// FindReactivatableSynapses lists ghost synapses whose source is among the
// recently active neurons.
func (t *DendriticTree) FindReactivatableSynapses(recentSources []uuid.UUID) []SynapseRef {
	recent := make(map[uuid.UUID]struct{}, len(recentSources))
	for _, id := range recentSources {
		recent[id] = struct{}{}
	}

	var refs []SynapseRef
	for _, id := range t.order {
		for _, syn := range t.segments[id].synapses {
			if syn.state != Ghost {
				continue
			}
			if _, ok := recent[syn.sourceNeuronID]; ok {
				refs = append(refs, SynapseRef{SegmentID: id, SynapseID: syn.id})
			}
		}
	}
	return refs
}

// ReactivateSynapse revives a ghost synapse if its source is among the
// recently active neurons.
func (t *DendriticTree) ReactivateSynapse(segmentID, synapseID uuid.UUID, recentSources []uuid.UUID) bool {
	seg, ok := t.segments[segmentID]
	if !ok {
		return false
	}
	syn := seg.Synapse(synapseID)
	if syn == nil {
		return false
	}
	allowed := false
	for _, id := range recentSources {
		if id == syn.sourceNeuronID {
			allowed = true
			break
		}
	}
	if !allowed || !syn.Reactivate() {
		return false
	}
	t.updateConnectionCount()
	return true
}

// Synapse finds a synapse anywhere in the tree.
func (t *DendriticTree) Synapse(id uuid.UUID) *Synapse {
	for _, segID := range t.order {
		if syn := t.segments[segID].Synapse(id); syn != nil {
			return syn
		}
	}
	return nil
}

// MaintenanceCost sums the upkeep of all segments.
func (t *DendriticTree) MaintenanceCost() float32 {
	var total float32
	for _, id := range t.order {
		total += t.segments[id].MaintenanceCost()
	}
	return total
}

// Position is the centroid of the root segments.
func (t *DendriticTree) Position() Position {
	if len(t.roots) == 0 {
		return Position{}
	}
	var sum r3.Vec
	for _, id := range t.roots {
		sum = r3.Add(sum, t.segments[id].position.Vec())
	}
	return PositionFromVec(r3.Scale(1/float64(len(t.roots)), sum))
}

// AddEnergy tops up the tree's energy.
func (t *DendriticTree) AddEnergy(amount float32) {
	t.energy += amount
}

// AdvanceTime moves simulated time forward without growing.
func (t *DendriticTree) AdvanceTime(dt float32) {
	t.time += dt
}

// Segment returns a segment by id, or nil.
func (t *DendriticTree) Segment(id uuid.UUID) *DendriticSegment { return t.segments[id] }

// SegmentIDs returns segment ids in insertion order. Callers must not modify it.
func (t *DendriticTree) SegmentIDs() []uuid.UUID { return t.order }

// RootSegmentIDs returns the primary dendrite ids.
func (t *DendriticTree) RootSegmentIDs() []uuid.UUID { return t.roots }

// SegmentCount returns the number of segments.
func (t *DendriticTree) SegmentCount() int { return len(t.order) }

// NeuronID returns the owning neuron's id.
func (t *DendriticTree) NeuronID() uuid.UUID { return t.neuronID }

// Energy returns the available energy.
func (t *DendriticTree) Energy() float32 { return t.energy }

// GrowthRateModifier returns the modifier computed by the last Grow.
func (t *DendriticTree) GrowthRateModifier() float32 { return t.growthRateModifier }

// ElectrotonicLength returns the tree-level electrotonic length.
func (t *DendriticTree) ElectrotonicLength() float32 { return t.electrotonicLength }

// ConnectionCount returns the number of active synapses.
func (t *DendriticTree) ConnectionCount() int { return t.connectionCount }

// Time returns the simulated time.
func (t *DendriticTree) Time() float32 { return t.time }

// Seed returns the tree's random seed.
func (t *DendriticTree) Seed() uint64 { return t.seed }

// Signature changes whenever the tree's structure changes.
func (t *DendriticTree) Signature() uint64 { return t.signature }

// LogValue implements slog.LogValuer.
func (t *DendriticTree) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("neuron", t.neuronID.String()),
		slog.Int("segments", len(t.order)),
		slog.Int("connections", t.connectionCount),
		slog.Float64("energy", float64(t.energy)),
		slog.Float64("time", float64(t.time)),
	)
}
