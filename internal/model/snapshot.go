package model

import "time"

// Snapshot is everything one refresh cycle publishes. It is replaced whole, never patched.
type Snapshot struct {
	ID            string                          `json:"id"`
	GeneratedAt   time.Time                       `json:"generatedAt"`
	Source        FeedSource                      `json:"source"`
	Assets        []AssetTelemetry                `json:"assets"`
	Sentiment     MarketSentiment                 `json:"sentiment"`
	Liquidations  map[Timeframe]LiquidationBucket `json:"liquidations"`
	Opportunities []Opportunity                   `json:"opportunities"`
	BestSignal    *AssetTelemetry                 `json:"bestSignal,omitempty"`
	Duration      time.Duration                   `json:"durationNs"`
}

// Asset returns the telemetry for symbol, or nil.
func (s *Snapshot) Asset(symbol string) *AssetTelemetry {
	for i := range s.Assets {
		if s.Assets[i].Symbol == symbol {
			return &s.Assets[i]
		}
	}
	return nil
}
