// Package liquidation rolls per-asset liquidation estimates into per-timeframe
// totals split by side.
package liquidation

import (
	"Sentinels/internal/calculator"
	"Sentinels/internal/model"
)

// Buckets maps each timeframe to its roll-up.
type Buckets map[model.Timeframe]model.LiquidationBucket

// Aggregate always computes total, long and short for every timeframe. The
// long/short split uses each asset's long and short ratios.
func Aggregate(assets []model.AssetTelemetry) Buckets {
	out := make(Buckets, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		out[tf] = model.LiquidationBucket{}
	}
	for _, a := range assets {
		for _, tf := range model.Timeframes {
			total := a.Liquidations[tf]
			if !calculator.Finite(total) || total < 0 {
				continue
			}
			b := out[tf]
			b.Total += total
			b.Long += total * a.LongRatio / 100
			b.Short += total * a.ShortRatio / 100
			out[tf] = b
		}
	}
	return out
}

// Display returns the figure chosen by filter for one timeframe. The filter
// only selects; it never changes what was computed.
func (b Buckets) Display(tf model.Timeframe, filter model.LiquidationFilter) float64 {
	return b[tf].Value(filter)
}

// DisplayAll returns the filtered figure for every timeframe.
func (b Buckets) DisplayAll(filter model.LiquidationFilter) map[model.Timeframe]float64 {
	out := make(map[model.Timeframe]float64, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		out[tf] = b.Display(tf, filter)
	}
	return out
}
