package systems

import (
	"math"

	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/growth"
)

// SegmentRef locates a dendritic segment in world space.
type SegmentRef struct {
	Target  int // index into the contact targets
	Segment uuid.UUID
	Pos     growth.Position // world position
}

// Neighbor is a segment found by a radius query.
type Neighbor struct {
	SegmentRef
	DistSq float32 // squared distance from the query origin
}

type cellKey [3]int32

// SpatialGrid buckets segments into cubic cells for radius queries. The
// world is unbounded, so cells live in a map.
type SpatialGrid struct {
	cellSize float32
	cells    map[cellKey][]SegmentRef
	keys     []cellKey // insertion order, for Clear
}

// NewSpatialGrid creates a grid with the given cell edge length.
func NewSpatialGrid(cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]SegmentRef),
	}
}

// CellSize returns the cell edge length.
func (g *SpatialGrid) CellSize() float32 { return g.cellSize }

// Clear removes all segments from the grid, keeping allocated cells.
func (g *SpatialGrid) Clear() {
	for _, k := range g.keys {
		g.cells[k] = g.cells[k][:0]
	}
}

// Insert adds a segment at its world position.
func (g *SpatialGrid) Insert(ref SegmentRef) {
	k := g.cellOf(ref.Pos)
	cell, ok := g.cells[k]
	if !ok {
		g.keys = append(g.keys, k)
	}
	g.cells[k] = append(cell, ref)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// QueryRadiusInto finds segments within radius of p and appends them to dst
// (up to MaxQueryResults). Cells are visited in a fixed order and segments in
// insertion order, so results are deterministic.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, p growth.Position, radius float32) []Neighbor {
	if radius < 0 {
		return dst
	}
	cellRadius := int32(radius/g.cellSize) + 1
	center := g.cellOf(p)
	radiusSq := radius * radius

	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			for dz := -cellRadius; dz <= cellRadius; dz++ {
				k := cellKey{center[0] + dx, center[1] + dy, center[2] + dz}
				for _, ref := range g.cells[k] {
					d := distanceSq(p, ref.Pos)
					if d > radiusSq {
						continue
					}
					dst = append(dst, Neighbor{SegmentRef: ref, DistSq: d})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}
	return dst
}

func (g *SpatialGrid) cellOf(p growth.Position) cellKey {
	return cellKey{
		int32(math.Floor(float64(p.X / g.cellSize))),
		int32(math.Floor(float64(p.Y / g.cellSize))),
		int32(math.Floor(float64(p.Z / g.cellSize))),
	}
}
