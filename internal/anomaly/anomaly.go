// Package anomaly flags funding extremes and open-interest/price divergences.
package anomaly

import (
	"github.com/shopspring/decimal"

	"Sentinels/internal/model"
)

// Rule thresholds.
const (
	NegativeFundingThreshold = -0.02
	HighFundingThreshold     = 0.05
	OIRiseThreshold          = 2.0
	PriceDropThreshold       = -1.0
)

const (
	ReasonNegativeFunding = "Negative Funding Rate"
	ReasonHighFunding     = "High Funding Rate"
	ReasonOIDivergence    = "OI Rising while Price Drops"

	MetricFunding = "Funding"
	MetricOIDiv   = "OI Div"
)

type rule struct {
	kind   model.OpportunityType
	reason string
	metric string
	match  func(a *model.AssetTelemetry) bool
	value  func(a *model.AssetTelemetry) string
}

var rules = []rule{
	{
		kind:   model.Bullish,
		reason: ReasonNegativeFunding,
		metric: MetricFunding,
		match:  func(a *model.AssetTelemetry) bool { return a.FundingRate < NegativeFundingThreshold },
		value:  fundingValue,
	},
	{
		kind:   model.Bearish,
		reason: ReasonHighFunding,
		metric: MetricFunding,
		match:  func(a *model.AssetTelemetry) bool { return a.FundingRate > HighFundingThreshold },
		value:  fundingValue,
	},
	{
		kind:   model.Bearish,
		reason: ReasonOIDivergence,
		metric: MetricOIDiv,
		match: func(a *model.AssetTelemetry) bool {
			return a.OpenInterestChange1h > OIRiseThreshold && a.PriceChange1h < PriceDropThreshold
		},
		value: func(a *model.AssetTelemetry) string {
			return "OI +" + decimal.NewFromFloat(a.OpenInterestChange1h).StringFixed(1) + "%"
		},
	},
}

func fundingValue(a *model.AssetTelemetry) string {
	return decimal.NewFromFloat(a.FundingRate).StringFixed(4) + "%"
}

// Detect applies every rule independently, one pass over the assets per rule.
// An asset can appear once per rule it matches; results keep discovery order.
func Detect(assets []model.AssetTelemetry) []model.Opportunity {
	out := make([]model.Opportunity, 0)
	for _, r := range rules {
		for i := range assets {
			a := &assets[i]
			if !r.match(a) {
				continue
			}
			out = append(out, model.Opportunity{
				Type:   r.kind,
				Coin:   a.Symbol,
				Reason: r.reason,
				Metric: r.metric,
				Value:  r.value(a),
			})
		}
	}
	return out
}
