package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"Sentinels/internal/calculator"
	"Sentinels/internal/liquidation"
	"Sentinels/internal/model"
)

// HelpText lists the supported bot commands.
const HelpText = "Available commands:\n" +
	"• /sentiment\n" +
	"• /opportunities\n" +
	"• /liquidations [long|short]\n" +
	"• /best\n" +
	"• /analysis"

// MaxListed caps list sections in a digest.
const MaxListed = 5

type moodTier struct {
	Max   int
	Label string
}

var moodTiers = []moodTier{
	{25, "Extreme Fear"},
	{45, "Fear"},
	{55, "Neutral"},
	{75, "Greed"},
	{100, "Extreme Greed"},
}

// MoodLabel names the fear/greed band an index falls in.
func MoodLabel(index int) string {
	for _, t := range moodTiers {
		if index <= t.Max {
			return t.Label
		}
	}
	return moodTiers[len(moodTiers)-1].Label
}

var scales = []struct {
	unit  decimal.Decimal
	label string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// FormatUSD renders an amount with a T/B/M/K suffix and two decimals.
func FormatUSD(v float64) string {
	if !calculator.Finite(v) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v)
	abs := d.Abs()
	for _, s := range scales {
		if abs.GreaterThanOrEqual(s.unit) {
			return "$" + d.Div(s.unit).StringFixed(2) + s.label
		}
	}
	return "$" + d.StringFixed(2)
}

// FormatPrice renders a quote price with precision suited to its magnitude.
func FormatPrice(v float64) string {
	places := int32(2)
	if math.Abs(v) < 1 {
		places = 4
	}
	return "$" + decimal.NewFromFloat(v).StringFixed(places)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws a price history as block characters.
func Sparkline(values []float64) string {
	high, low, err := calculator.Range(values)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, v := range values {
		if !calculator.Finite(v) {
			continue
		}
		pos := calculator.Position(v, high, low)
		b.WriteRune(sparkBlocks[int(math.Round(pos*float64(len(sparkBlocks)-1)))])
	}
	return b.String()
}

func sourceTag(src model.FeedSource) string {
	if src == model.SourceBackup {
		return " ⚠️ <i>backup data</i>"
	}
	return ""
}

// FormatSentiment formats the market-wide sentiment block.
func FormatSentiment(snap *model.Snapshot) string {
	s := snap.Sentiment
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Market Sentiment</b> | %s%s\n\n", snap.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), sourceTag(snap.Source)))
	b.WriteString(fmt.Sprintf("Fear &amp; Greed: <b>%d</b> (%s)\n", s.FearGreedIndex, MoodLabel(s.FearGreedIndex)))
	b.WriteString(fmt.Sprintf("BTC Dominance: %.1f%%\n", s.BTCDominance))
	b.WriteString(fmt.Sprintf("Total Market Cap: %s\n", FormatUSD(s.TotalMarketCap)))
	b.WriteString(fmt.Sprintf("24h Volume: %s\n", FormatUSD(s.TotalVolume24h)))
	return b.String()
}

// FormatOpportunities lists flagged anomalies. limit <= 0 lists all.
func FormatOpportunities(ops []model.Opportunity, limit int) string {
	var b strings.Builder
	b.WriteString("🎯 <b>Opportunities</b>\n")
	if len(ops) == 0 {
		b.WriteString("No anomalies detected.\n")
		return b.String()
	}
	shown := ops
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, o := range shown {
		icon := "🟢"
		if o.Type == model.Bearish {
			icon = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s: %s (%s)\n", icon, html.EscapeString(o.Coin), o.Metric, html.EscapeString(o.Value), o.Reason))
	}
	if len(shown) < len(ops) {
		b.WriteString(fmt.Sprintf("… and %d more\n", len(ops)-len(shown)))
	}
	return b.String()
}

// FormatLiquidations renders the filtered figure for every timeframe.
func FormatLiquidations(buckets liquidation.Buckets, filter model.LiquidationFilter) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💥 <b>Liquidations</b> (%s)\n", filter))
	values := buckets.DisplayAll(filter)
	for _, tf := range model.Timeframes {
		b.WriteString(fmt.Sprintf("  %s: %s\n", tf, FormatUSD(values[tf])))
	}
	return b.String()
}

// FormatBestSignal describes the strongest-scoring asset.
func FormatBestSignal(a *model.AssetTelemetry) string {
	if a == nil {
		return "🏆 <b>Best Signal</b>\nNo asset qualifies yet.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>Best Signal: %s</b>\n", html.EscapeString(a.Symbol)))
	b.WriteString(fmt.Sprintf("Price: %s | VWAP: %s\n", FormatPrice(a.Price), FormatPrice(a.VWAP)))
	changes := make([]string, 0, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		changes = append(changes, fmt.Sprintf("%s %+.2f%%", tf, a.PriceChange(tf)))
	}
	b.WriteString("Change: " + strings.Join(changes, " | ") + "\n")
	for _, tf := range model.SignalTimeframes {
		b.WriteString(fmt.Sprintf("  %s: %s\n", tf, a.Signals[tf]))
	}
	if line := Sparkline(a.PriceHistory); line != "" {
		b.WriteString("24h: " + line + "\n")
	}
	return b.String()
}

// FormatAnalysis renders a narrative analysis result.
func FormatAnalysis(res *model.AnalysisResult) string {
	if res == nil {
		return "🧠 <b>AI Analysis</b>\nNo analysis has been run yet. Try again shortly.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧠 <b>AI Analysis</b> | Outlook: <b>%s</b>\n\n", res.Outlook))
	b.WriteString(html.EscapeString(res.Summary) + "\n")
	if len(res.KeyRisks) > 0 {
		b.WriteString("\n⚠️ <b>Key risks:</b>\n")
		for _, r := range res.KeyRisks {
			b.WriteString("  • " + html.EscapeString(r) + "\n")
		}
	}
	if len(res.TopTradeSetups) > 0 {
		b.WriteString("\n📐 <b>Setups:</b>\n")
		for _, s := range res.TopTradeSetups {
			b.WriteString(fmt.Sprintf("  %s %s entry %s, target %s, stop %s\n",
				html.EscapeString(s.Coin), s.Direction, html.EscapeString(s.Entry),
				html.EscapeString(s.Target), html.EscapeString(s.StopLoss)))
			if s.Rationale != "" {
				b.WriteString("    " + html.EscapeString(s.Rationale) + "\n")
			}
		}
	}
	return b.String()
}

// FormatDigest is the periodic summary pushed to the chat.
func FormatDigest(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(FormatSentiment(snap))
	b.WriteString("\n")
	b.WriteString(FormatOpportunities(snap.Opportunities, MaxListed))
	b.WriteString("\n")
	b.WriteString(FormatLiquidations(liquidation.Buckets(snap.Liquidations), model.FilterAll))
	b.WriteString("\n")
	b.WriteString(FormatBestSignal(snap.BestSignal))
	return b.String()
}
