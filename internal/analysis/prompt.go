package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"Sentinels/internal/model"
)

// TopMovers is how many assets the prompt carries.
const TopMovers = 8

// topMovers returns up to n assets by absolute 24h change without reordering the input.
func topMovers(assets []model.AssetTelemetry, n int) []model.AssetTelemetry {
	sorted := make([]model.AssetTelemetry, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].PriceChange24h) > math.Abs(sorted[j].PriceChange24h)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// BuildPrompt renders the market context and instructions for the model.
func BuildPrompt(assets []model.AssetTelemetry, s model.MarketSentiment) string {
	var b strings.Builder
	b.WriteString("You are an expert crypto trader using Smart Money Concepts. Analyze the provided market data.\n\n")
	b.WriteString("Market Context:\n")
	b.WriteString(fmt.Sprintf("Fear & Greed: %d\n", s.FearGreedIndex))
	b.WriteString(fmt.Sprintf("BTC Dominance: %.1f%%\n\n", s.BTCDominance))
	b.WriteString("Top Assets Data:\n")
	for _, a := range topMovers(assets, TopMovers) {
		b.WriteString(fmt.Sprintf("%s: $%.2f (24h: %.2f%%, Funding: %.4f%%)\n",
			a.Symbol, a.Price, a.PriceChange24h, a.FundingRate))
	}
	b.WriteString("\n1. Provide a concise market summary.\n")
	b.WriteString("2. Identify 3 key risks.\n")
	b.WriteString("3. Give an overall outlook.\n")
	b.WriteString("4. Suggest 2 high-probability trade setups (1 Long, 1 Short if possible) based on the momentum and funding rates provided. Include Entry, Target, and Stop Loss.\n\n")
	b.WriteString("Return strictly as JSON.")
	return b.String()
}
