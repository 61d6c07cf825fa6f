package growth

import "math/rand"

// Seed multipliers applied to simulated time. The step seed truncates time to
// whole days before scaling; the site seed scales first.
const (
	stepSeedScale = 1000
	siteSeedScale = 100
)

// stepRand returns the generator used for the branching gate and direction
// noise of the step at simulated time t.
func stepRand(seed uint64, t float32) *rand.Rand {
	return seededRand(seed + timeBits(t)*stepSeedScale)
}

// siteRand returns the generator used to pick a growth site at time t.
func siteRand(seed uint64, t float32) *rand.Rand {
	return seededRand(seed + timeBits(t*siteSeedScale))
}

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

// timeBits truncates a non-negative simulated time towards zero.
func timeBits(t float32) uint64 {
	if t != t || t <= 0 {
		return 0
	}
	return uint64(t)
}
