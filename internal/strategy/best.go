package strategy

import (
	"math"

	"Sentinels/internal/model"
)

// BestSignal picks the asset with a strong 4h signal and the largest absolute
// 24h move. Without a strong signal it falls back to the first asset; an empty
// set yields nil. The input order is left untouched.
func BestSignal(assets []model.AssetTelemetry) *model.AssetTelemetry {
	if len(assets) == 0 {
		return nil
	}
	var best *model.AssetTelemetry
	for i := range assets {
		a := &assets[i]
		sig := a.Signals[model.Signal4h]
		if sig != model.StrongBuy && sig != model.StrongSell {
			continue
		}
		if best == nil || math.Abs(a.PriceChange24h) > math.Abs(best.PriceChange24h) {
			best = a
		}
	}
	if best == nil {
		best = &assets[0]
	}
	cp := *best
	return &cp
}
