package growth

import "gonum.org/v1/gonum/spatial/r3"

// Position is a point in the 3-D growth environment.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// NewPosition creates a position from its coordinates.
func NewPosition(x, y, z float32) Position {
	return Position{X: x, Y: y, Z: z}
}

// DistanceTo returns the Euclidean distance between p and other.
func (p Position) DistanceTo(other Position) float32 {
	return float32(r3.Norm(r3.Sub(p.Vec(), other.Vec())))
}

// Vec converts the position into a gonum vector.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// Translate returns p moved by amount along dir.
func (p Position) Translate(dir r3.Vec, amount float32) Position {
	return Position{
		X: p.X + float32(dir.X)*amount,
		Y: p.Y + float32(dir.Y)*amount,
		Z: p.Z + float32(dir.Z)*amount,
	}
}

// PositionFromVec converts a gonum vector into a position.
func PositionFromVec(v r3.Vec) Position {
	return Position{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// normalizeOr returns the unit vector of v, or v unchanged when its norm is
// not above minNorm.
func normalizeOr(v r3.Vec, minNorm float64) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n <= minNorm {
		return v, false
	}
	return r3.Scale(1/n, v), true
}
