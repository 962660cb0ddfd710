package strategy

import "Sentinels/internal/model"

// Classification thresholds on the composite score. Comparisons are exclusive:
// a score equal to a threshold falls into the weaker band.
const (
	StrongBuyThreshold  = 0.04
	BuyThreshold        = 0.01
	SellThreshold       = -0.01
	StrongSellThreshold = -0.04

	// DeviationWeight scales the VWAP deviation term.
	DeviationWeight = 2.0
)

// Weights is the momentum weight per signal timeframe, lowest for the shortest.
var Weights = map[model.SignalTimeframe]float64{
	model.Signal5m:  0.5,
	model.Signal15m: 1.0,
	model.Signal1h:  1.5,
	model.Signal4h:  2.0,
}

// CompositeScore blends the VWAP deviation with 24h momentum scaled by weight.
// A non-positive vwap counts as zero deviation.
func CompositeScore(price, vwap, change24h, weight float64) float64 {
	deviation := 0.0
	if vwap > 0 {
		deviation = (price - vwap) / vwap
	}
	momentum := change24h / 100
	return deviation*DeviationWeight + momentum*weight
}

// Classify maps a composite score to a direction.
func Classify(score float64) model.SignalDirection {
	switch {
	case score > StrongBuyThreshold:
		return model.StrongBuy
	case score > BuyThreshold:
		return model.Buy
	case score < StrongSellThreshold:
		return model.StrongSell
	case score < SellThreshold:
		return model.Sell
	default:
		return model.Neutral
	}
}

// Score classifies one asset for one timeframe weight.
func Score(price, vwap, change24h, weight float64) model.SignalDirection {
	return Classify(CompositeScore(price, vwap, change24h, weight))
}

// Signals computes the full timeframe map for one asset. All four keys are always set.
func Signals(price, vwap, change24h float64) map[model.SignalTimeframe]model.SignalDirection {
	out := make(map[model.SignalTimeframe]model.SignalDirection, len(model.SignalTimeframes))
	for _, tf := range model.SignalTimeframes {
		out[tf] = Score(price, vwap, change24h, Weights[tf])
	}
	return out
}

// ApplySignals fills the signal map of every asset in place.
func ApplySignals(assets []model.AssetTelemetry) {
	for i := range assets {
		a := &assets[i]
		a.Signals = Signals(a.Price, a.VWAP, a.PriceChange24h)
	}
}
