package model

import "math"

// FeedSource tags where a quote set came from.
type FeedSource string

const (
	SourcePrimary FeedSource = "PRIMARY"
	SourceBackup  FeedSource = "BACKUP"
)

// AssetQuote is one raw row of the upstream asset listing.
type AssetQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"` // percent
	Volume24h float64 `json:"volume24h"`
	MarketCap float64 `json:"marketCap"`
	VWAP24h   float64 `json:"vwap24h"`
}

// ReferenceVWAP returns the quote's VWAP, or the price when VWAP is missing,
// non-positive or non-finite.
func (q AssetQuote) ReferenceVWAP() float64 {
	if q.VWAP24h > 0 && !math.IsInf(q.VWAP24h, 1) {
		return q.VWAP24h
	}
	return q.Price
}
