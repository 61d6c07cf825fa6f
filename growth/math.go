package growth

import "math"

// clampFloat clamps v to [minVal, maxVal]. NaN collapses to minVal.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v != v {
		return minVal
	}
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float32) float32 {
	return clampFloat(v, 0, 1)
}

// sanitizeAmount maps plasticity inputs onto [0, MaxFloat32].
func sanitizeAmount(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if math.IsInf(float64(v), 1) {
		return math.MaxFloat32
	}
	return v
}

func powf(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

func expf(v float32) float32 {
	return float32(math.Exp(float64(v)))
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
