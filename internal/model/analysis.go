package model

// Outlook is the narrative analyst's overall market call.
type Outlook string

const (
	OutlookBullish Outlook = "Bullish"
	OutlookBearish Outlook = "Bearish"
	OutlookNeutral Outlook = "Neutral"
)

// TradeDirection is the side of a suggested setup.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "LONG"
	DirectionShort TradeDirection = "SHORT"
)

// TradeSetup is one structured idea returned by the narrative analyst.
type TradeSetup struct {
	Coin      string         `json:"coin"`
	Direction TradeDirection `json:"direction"`
	Entry     string         `json:"entry"`
	Target    string         `json:"target"`
	StopLoss  string         `json:"stopLoss"`
	Rationale string         `json:"rationale"`
}

// AnalysisResult is the narrative analyst's response, or its fallback.
type AnalysisResult struct {
	Summary        string       `json:"summary"`
	KeyRisks       []string     `json:"keyRisks"`
	Outlook        Outlook      `json:"outlook"`
	TopTradeSetups []TradeSetup `json:"topTradeSetups"`
	Fallback       bool         `json:"fallback"`
}
