// Package sentiment reduces the synthesized asset set into market-wide indices.
package sentiment

import (
	"errors"
	"math"

	"Sentinels/internal/calculator"
	"Sentinels/internal/model"
)

const (
	// DominanceSymbol is the asset whose share of total market cap is reported.
	DominanceSymbol = "BTC"
	// FallbackDominance is reported when the dominance asset is missing or the total is zero.
	FallbackDominance = 52.5

	FearGreedBase       = 50.0
	FearGreedMultiplier = 8.0
	FearGreedMin        = 15
	FearGreedMax        = 95
)

// Aggregate computes the market sentiment for one cycle. It never fails:
// empty or degenerate input yields neutral defaults.
func Aggregate(assets []model.AssetTelemetry) model.MarketSentiment {
	caps := make([]float64, 0, len(assets))
	vols := make([]float64, 0, len(assets))
	changes := make([]float64, 0, len(assets))
	btcCap := math.NaN()

	for _, a := range assets {
		caps = append(caps, a.MarketCap)
		vols = append(vols, a.Volume24h)
		changes = append(changes, a.PriceChange24h)
		if a.Symbol == DominanceSymbol && calculator.Finite(a.MarketCap) {
			btcCap = a.MarketCap
		}
	}

	total := calculator.Sum(caps)
	return model.MarketSentiment{
		FearGreedIndex: FearGreed(changes),
		BTCDominance:   calculator.SafeRatio(btcCap, total, FallbackDominance/100) * 100,
		TotalMarketCap: total,
		TotalVolume24h: calculator.Sum(vols),
	}
}

// FearGreed maps the mean 24h change onto the clamped index.
func FearGreed(changes []float64) int {
	mean, err := calculator.Mean(changes)
	if errors.Is(err, calculator.ErrNoData) {
		mean = 0
	}
	v := math.Round(FearGreedBase + mean*FearGreedMultiplier)
	return int(calculator.Clamp(v, FearGreedMin, FearGreedMax))
}
