package model

// OpportunityType is the direction of a flagged anomaly.
type OpportunityType string

const (
	Bullish OpportunityType = "BULLISH"
	Bearish OpportunityType = "BEARISH"
)

// Opportunity is one flagged anomaly. It has no identity across cycles.
type Opportunity struct {
	Type   OpportunityType `json:"type"`
	Coin   string          `json:"coin"`
	Reason string          `json:"reason"`
	Metric string          `json:"metric"`
	Value  string          `json:"value"`
}
