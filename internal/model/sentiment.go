package model

// MarketSentiment holds the market-wide indices for one cycle.
type MarketSentiment struct {
	FearGreedIndex int     `json:"fearGreedIndex"`
	BTCDominance   float64 `json:"btcDominance"`
	TotalMarketCap float64 `json:"totalMarketCap"`
	TotalVolume24h float64 `json:"totalVolume24h"`
}
