package calculator

import (
	"math"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Range returns the high and low of the finite values.
func Range(values []float64) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values {
		if !Finite(v) {
			continue
		}
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	if math.IsInf(high, -1) {
		return 0, 0, ErrNoData
	}
	return high, low, nil
}

// Position returns where v sits within [low, high] (0.0~1.0).
func Position(v, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	return Clamp((v-low)/(high-low), 0, 1)
}
