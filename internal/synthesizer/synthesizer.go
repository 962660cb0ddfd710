// Package synthesizer derives modeled derivatives telemetry from raw quotes.
// Nothing here is measured: every figure is an estimate from price and volume.
package synthesizer

import (
	"math"

	"Sentinels/internal/calculator"
	"Sentinels/internal/model"
	"Sentinels/internal/noise"
)

// Model constants.
const (
	Change1hDivisor  = 12.0
	Change4hDivisor  = 4.0
	Change12hDivisor = 2.0

	Change1hNoise  = 0.1
	Change4hNoise  = 0.25
	Change12hNoise = 0.4

	FundingFactor = 0.012
	FundingNoise  = 0.002

	OpenInterestFactor   = 0.15
	OpenInterestJitter   = 0.1
	OIChange1hNoise      = 1.5
	OIChange4hNoise      = 4.0
	LongRatioBase        = 50.0
	LongRatioSensitivity = 1.5

	// Liquidations switch between two regimes on |change24h|.
	VolatilityThreshold   = 5.0
	HighLiquidationFactor = 0.02
	LowLiquidationFactor  = 0.005

	// HistoryNoise is the per-point noise as a fraction of price.
	HistoryNoise = 0.002
)

// liquidationShare is each bucket's share of the 24h liquidation estimate.
var liquidationShare = map[model.Timeframe]float64{
	model.Timeframe1h:  1.0 / 24,
	model.Timeframe4h:  4.0 / 24,
	model.Timeframe12h: 12.0 / 24,
	model.Timeframe24h: 1,
}

// Synthesizer turns quotes into telemetry. The noise source is its only
// nondeterminism; pin it to make output reproducible.
type Synthesizer struct {
	Noise noise.Source
}

// New creates a Synthesizer. A nil source means zero noise.
func New(src noise.Source) *Synthesizer {
	if src == nil {
		src = noise.Zero
	}
	return &Synthesizer{Noise: src}
}

// Synthesize derives one telemetry record per quote, preserving order.
// Signals are left empty; strategy.ApplySignals fills them.
func (s *Synthesizer) Synthesize(quotes []model.AssetQuote) []model.AssetTelemetry {
	out := make([]model.AssetTelemetry, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, s.derive(q))
	}
	return out
}

func (s *Synthesizer) derive(q model.AssetQuote) model.AssetTelemetry {
	c := finiteOrZero(q.Change24h)
	volume := finiteOrZero(q.Volume24h)

	long := calculator.Clamp(LongRatioBase+c*LongRatioSensitivity, 0, 100)

	t := model.AssetTelemetry{
		Symbol:    q.Symbol,
		Price:     q.Price,
		VWAP:      q.ReferenceVWAP(),
		MarketCap: finiteOrZero(q.MarketCap),
		Volume24h: volume,

		PriceChange1h:  c/Change1hDivisor + s.jitter(Change1hNoise),
		PriceChange4h:  c/Change4hDivisor + s.jitter(Change4hNoise),
		PriceChange12h: c/Change12hDivisor + s.jitter(Change12hNoise),
		PriceChange24h: c,

		FundingRate:          c*FundingFactor + s.jitter(FundingNoise),
		OpenInterest:         volume * OpenInterestFactor * (1 + s.jitter(OpenInterestJitter)),
		OpenInterestChange1h: s.jitter(OIChange1hNoise),
		OpenInterestChange4h: s.jitter(OIChange4hNoise),

		LongRatio:  long,
		ShortRatio: 100 - long,

		Liquidations:    liquidations(volume, c),
		VolatilityScore: math.Abs(c),
		PriceHistory:    s.history(q.Price, c),
	}
	return t
}

// finiteOrZero maps NaN and ±Inf to 0 so every published field stays encodable.
func finiteOrZero(v float64) float64 {
	if !calculator.Finite(v) {
		return 0
	}
	return v
}

func (s *Synthesizer) jitter(amplitude float64) float64 {
	return noise.Symmetric(s.Noise, amplitude)
}

// LiquidationFactor returns the regime factor for a 24h change.
func LiquidationFactor(change24h float64) float64 {
	if math.Abs(change24h) > VolatilityThreshold {
		return HighLiquidationFactor
	}
	return LowLiquidationFactor
}

func liquidations(volume, change24h float64) map[model.Timeframe]float64 {
	day := volume * LiquidationFactor(change24h)
	out := make(map[model.Timeframe]float64, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		out[tf] = day * liquidationShare[tf]
	}
	return out
}
