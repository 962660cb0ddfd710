package calculator

import (
	"errors"
	"math"
)

// ErrNoData is returned when no finite values are available.
var ErrNoData = errors.New("no finite values")

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sum adds the finite values, skipping NaN and infinities.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		if Finite(v) {
			sum += v
		}
	}
	return sum
}

// Mean averages the finite values. Returns ErrNoData if there are none.
func Mean(values []float64) (float64, error) {
	sum, n := 0.0, 0
	for _, v := range values {
		if Finite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, ErrNoData
	}
	return sum / float64(n), nil
}

// SafeRatio returns num/den, or fallback when den is not a positive finite number.
func SafeRatio(num, den, fallback float64) float64 {
	if !Finite(den) || den <= 0 || !Finite(num) {
		return fallback
	}
	return num / den
}
