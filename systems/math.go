package systems

import "github.com/pthm-cable/arbor/growth"

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	return clampFloat(v, 0, 1)
}

// distanceSq returns the squared distance between two points.
func distanceSq(a, b growth.Position) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// toLocal shifts p by -origin, moving a world position into a soma frame.
func toLocal(p, origin growth.Position) growth.Position {
	return growth.NewPosition(p.X-origin.X, p.Y-origin.Y, p.Z-origin.Z)
}

// toWorld moves a soma-frame position into world coordinates.
func toWorld(p, origin growth.Position) growth.Position {
	return growth.NewPosition(p.X+origin.X, p.Y+origin.Y, p.Z+origin.Z)
}
