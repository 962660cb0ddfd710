package model

// SignalDirection is the five-level directional classification.
type SignalDirection string

const (
	StrongBuy  SignalDirection = "STRONG_BUY"
	Buy        SignalDirection = "BUY"
	Neutral    SignalDirection = "NEUTRAL"
	Sell       SignalDirection = "SELL"
	StrongSell SignalDirection = "STRONG_SELL"
)

// Valid reports whether d is one of the five known directions.
func (d SignalDirection) Valid() bool {
	switch d {
	case StrongBuy, Buy, Neutral, Sell, StrongSell:
		return true
	}
	return false
}

// SignalTimeframe keys the per-asset signal map.
type SignalTimeframe string

const (
	Signal5m  SignalTimeframe = "5m"
	Signal15m SignalTimeframe = "15m"
	Signal1h  SignalTimeframe = "1h"
	Signal4h  SignalTimeframe = "4h"
)

// SignalTimeframes lists every signal timeframe, shortest first.
var SignalTimeframes = []SignalTimeframe{Signal5m, Signal15m, Signal1h, Signal4h}

// Timeframe keys liquidation buckets and the price-change selector.
type Timeframe string

const (
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe12h Timeframe = "12h"
	Timeframe24h Timeframe = "24h"
)

// Timeframes lists every liquidation timeframe, shortest first.
var Timeframes = []Timeframe{Timeframe1h, Timeframe4h, Timeframe12h, Timeframe24h}

// HistoryLength is the number of points in every synthetic price history.
const HistoryLength = 24

// AssetTelemetry is the synthesized record for one asset. It is rebuilt every cycle.
type AssetTelemetry struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	VWAP      float64 `json:"vwap"`
	MarketCap float64 `json:"marketCap"`
	Volume24h float64 `json:"volume24h"`

	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange4h  float64 `json:"priceChange4h"`
	PriceChange12h float64 `json:"priceChange12h"`
	PriceChange24h float64 `json:"priceChange24h"`

	FundingRate          float64 `json:"fundingRate"` // percent
	OpenInterest         float64 `json:"openInterest"`
	OpenInterestChange1h float64 `json:"openInterestChange1h"`
	OpenInterestChange4h float64 `json:"openInterestChange4h"`

	LongRatio  float64 `json:"longRatio"`
	ShortRatio float64 `json:"shortRatio"`

	Liquidations    map[Timeframe]float64 `json:"liquidations"`
	VolatilityScore float64               `json:"volatilityScore"`
	PriceHistory    []float64             `json:"priceHistory"` // oldest first

	Signals map[SignalTimeframe]SignalDirection `json:"signals"`
}

// PriceChange returns the price change for a liquidation timeframe.
func (a *AssetTelemetry) PriceChange(tf Timeframe) float64 {
	switch tf {
	case Timeframe1h:
		return a.PriceChange1h
	case Timeframe4h:
		return a.PriceChange4h
	case Timeframe12h:
		return a.PriceChange12h
	default:
		return a.PriceChange24h
	}
}
