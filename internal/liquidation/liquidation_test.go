package liquidation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinels/internal/model"
	"Sentinels/internal/noise"
	"Sentinels/internal/synthesizer"
)

func asset(long float64, liq float64) model.AssetTelemetry {
	return model.AssetTelemetry{
		LongRatio:  long,
		ShortRatio: 100 - long,
		Liquidations: map[model.Timeframe]float64{
			model.Timeframe1h:  liq / 24,
			model.Timeframe4h:  liq / 6,
			model.Timeframe12h: liq / 2,
			model.Timeframe24h: liq,
		},
	}
}

func TestAggregate_SplitsBySide(t *testing.T) {
	b := Aggregate([]model.AssetTelemetry{asset(60, 1000), asset(25, 400)})
	day := b[model.Timeframe24h]
	assert.InDelta(t, 1400, day.Total, 1e-9)
	assert.InDelta(t, 600+100, day.Long, 1e-9)
	assert.InDelta(t, 400+300, day.Short, 1e-9)
	assert.InDelta(t, 700, b[model.Timeframe12h].Total, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil)
	require.Len(t, b, 4)
	for _, tf := range model.Timeframes {
		assert.Equal(t, model.LiquidationBucket{}, b[tf])
	}
}

func TestAggregate_SkipsNonFinite(t *testing.T) {
	bad := asset(50, math.NaN())
	b := Aggregate([]model.AssetTelemetry{bad, asset(50, 100)})
	assert.InDelta(t, 100, b[model.Timeframe24h].Total, 1e-9)
}

func TestDisplay_FilterDoesNotAlterTotals(t *testing.T) {
	src := noise.NewLocked(11)
	quotes := make([]model.AssetQuote, 50)
	for i := range quotes {
		quotes[i] = model.AssetQuote{
			Symbol:    "X",
			Price:     1 + src.Float64()*100,
			Change24h: (src.Float64()*2 - 1) * 30,
			Volume24h: src.Float64() * 5e9,
		}
	}
	assets := synthesizer.New(src).Synthesize(quotes)
	b := Aggregate(assets)

	for _, filter := range []model.LiquidationFilter{model.FilterAll, model.FilterLong, model.FilterShort} {
		before := Aggregate(assets)
		_ = b.DisplayAll(filter)
		for _, tf := range model.Timeframes {
			bucket := b[tf]
			assert.InEpsilon(t, bucket.Total, bucket.Long+bucket.Short, 1e-9, "%s %s", filter, tf)
			assert.Equal(t, before[tf], bucket)
		}
	}
}

func TestDisplay_SelectsFigure(t *testing.T) {
	b := Aggregate([]model.AssetTelemetry{asset(75, 800)})
	assert.InDelta(t, 800, b.Display(model.Timeframe24h, model.FilterAll), 1e-9)
	assert.InDelta(t, 600, b.Display(model.Timeframe24h, model.FilterLong), 1e-9)
	assert.InDelta(t, 200, b.Display(model.Timeframe24h, model.FilterShort), 1e-9)

	all := b.DisplayAll(model.FilterShort)
	require.Len(t, all, 4)
	assert.InDelta(t, 100, all[model.Timeframe12h], 1e-9)
}
