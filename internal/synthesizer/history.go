package synthesizer

import "Sentinels/internal/model"

// history walks back from the current price by a constant per-step trend so the
// series roughly matches the stated 24h change. The last point is the price itself.
func (s *Synthesizer) history(price, change24h float64) []float64 {
	n := model.HistoryLength
	out := make([]float64, n)

	start := price
	if base := 1 + change24h/100; base > 0 {
		start = price / base
	}
	step := (price - start) / float64(n-1)

	out[n-1] = price
	for i := n - 2; i >= 0; i-- {
		back := float64(n - 1 - i)
		out[i] = price - step*back + s.jitter(price*HistoryNoise)
	}
	return out
}
