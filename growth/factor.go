package growth

import "fmt"

// FactorKind classifies how a growth factor acts on a growing tip.
type FactorKind uint8

const (
	Attractive FactorKind = iota // chemoattractant, pulls the tip in
	Repulsive                    // chemorepellent, pushes the tip away
	Obstacle                     // physical barrier, deflects the tip sideways
)

func (k FactorKind) String() string {
	switch k {
	case Attractive:
		return "attractive"
	case Repulsive:
		return "repulsive"
	case Obstacle:
		return "obstacle"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k FactorKind) MarshalText() ([]byte, error) {
	if k > Obstacle {
		return nil, fmt.Errorf("invalid factor kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *FactorKind) UnmarshalText(text []byte) error {
	kind, err := ParseFactorKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseFactorKind resolves a kind name as produced by String.
func ParseFactorKind(name string) (FactorKind, error) {
	switch name {
	case "attractive":
		return Attractive, nil
	case "repulsive":
		return Repulsive, nil
	case "obstacle":
		return Obstacle, nil
	}
	return 0, fmt.Errorf("unknown factor kind %q", name)
}

// Obstacle shaping.
const (
	obstacleNearField      = 0.5  // fraction of the radius treated as hard contact
	obstacleNearInfluence  = -2.0 // influence inside the near field
	obstacleFarFieldFactor = 1.5  // scale on the plain repulsive falloff
	minFactorRadius        = 0.1
)

// GrowthFactor is an environmental point source acting on growing neurites.
// Factors are created per simulation step by the caller and never retained
// by growth structures.
type GrowthFactor struct {
	Position Position   `json:"position"`
	Strength float32    `json:"strength"` // 0..1
	Radius   float32    `json:"radius"`   // >= 0.1
	Kind     FactorKind `json:"kind"`
}

// NewGrowthFactor creates a factor, clamping strength to [0,1] and the radius
// to at least 0.1.
func NewGrowthFactor(pos Position, strength, radius float32, kind FactorKind) GrowthFactor {
	if radius != radius || radius < minFactorRadius {
		radius = minFactorRadius
	}
	return GrowthFactor{
		Position: pos,
		Strength: clamp01(strength),
		Radius:   radius,
		Kind:     kind,
	}
}

// InfluenceAt returns the signed influence of the factor at p.
// Positive values attract, negative values repel. Zero outside the radius.
func (f GrowthFactor) InfluenceAt(p Position) float32 {
	distance := f.Position.DistanceTo(p)
	if distance > f.Radius {
		return 0
	}

	base := f.Strength * (1 - distance/f.Radius)

	switch f.Kind {
	case Attractive:
		return base
	case Repulsive:
		return -base
	case Obstacle:
		if distance < f.Radius*obstacleNearField {
			return obstacleNearInfluence
		}
		return -base * obstacleFarFieldFactor
	}
	return 0
}
