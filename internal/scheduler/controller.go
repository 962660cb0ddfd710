package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"Sentinels/internal/anomaly"
	"Sentinels/internal/collector"
	"Sentinels/internal/liquidation"
	"Sentinels/internal/metrics"
	"Sentinels/internal/model"
	"Sentinels/internal/publisher"
	"Sentinels/internal/sentiment"
	"Sentinels/internal/strategy"
	"Sentinels/internal/synthesizer"
)

// State is the refresh state machine position.
type State int32

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	if s == Fetching {
		return "fetching"
	}
	return "idle"
}

var (
	// ErrNoSnapshot is returned by operations that need a completed cycle.
	ErrNoSnapshot = errors.New("no snapshot published yet")
	// ErrAnalysisBusy is returned when an analysis is running and none is cached.
	ErrAnalysisBusy = errors.New("analysis already in progress")
)

// Analyst produces a narrative read of the latest telemetry.
type Analyst interface {
	Analyze(ctx context.Context, assets []model.AssetTelemetry, s model.MarketSentiment) model.AnalysisResult
}

// Controller runs refresh cycles and holds the latest published snapshot.
type Controller struct {
	Collector   *collector.Collector
	Synthesizer *synthesizer.Synthesizer
	Analyst     Analyst
	Sinks       publisher.Fanout
	Metrics     *metrics.Registry

	now func() time.Time

	state     atomic.Int32
	latest    atomic.Pointer[model.Snapshot]
	analyzing atomic.Bool
	analysis  atomic.Pointer[model.AnalysisResult]
}

// NewController wires a controller. metrics may be nil.
func NewController(col *collector.Collector, syn *synthesizer.Synthesizer, analyst Analyst, m *metrics.Registry, sinks ...publisher.Sink) *Controller {
	return &Controller{
		Collector:   col,
		Synthesizer: syn,
		Analyst:     analyst,
		Sinks:       publisher.Fanout(sinks),
		Metrics:     m,
		now:         time.Now,
	}
}

// State reports whether a cycle is in flight.
func (c *Controller) State() State { return State(c.state.Load()) }

// Latest returns the last published snapshot, or nil before the first cycle.
func (c *Controller) Latest() *model.Snapshot { return c.latest.Load() }

// LatestAnalysis returns the cached analysis result, or nil.
func (c *Controller) LatestAnalysis() *model.AnalysisResult { return c.analysis.Load() }

// RunCycle performs one fetch/synthesize/score/aggregate/publish pass. A
// request while a cycle is in flight is dropped and returns false.
func (c *Controller) RunCycle(ctx context.Context) (*model.Snapshot, bool) {
	if !c.state.CompareAndSwap(int32(Idle), int32(Fetching)) {
		if c.Metrics != nil {
			c.Metrics.CyclesSkipped.Inc()
		}
		log.Debug().Msg("cycle already in flight, skipping")
		return nil, false
	}
	defer c.state.Store(int32(Idle))

	start := c.now()
	quotes, source := c.Collector.FetchQuotes(ctx)
	assets := c.Synthesizer.Synthesize(quotes)
	strategy.ApplySignals(assets)

	snap := &model.Snapshot{
		ID:            uuid.NewString(),
		GeneratedAt:   start.UTC(),
		Source:        source,
		Assets:        assets,
		Sentiment:     sentiment.Aggregate(assets),
		Liquidations:  liquidation.Aggregate(assets),
		Opportunities: anomaly.Detect(assets),
		BestSignal:    strategy.BestSignal(assets),
	}
	snap.Duration = c.now().Sub(start)
	c.latest.Store(snap)

	if c.Metrics != nil {
		c.Metrics.Cycles.WithLabelValues(string(source)).Inc()
		c.Metrics.CycleDuration.Observe(snap.Duration.Seconds())
		c.Metrics.FearGreed.Set(float64(snap.Sentiment.FearGreedIndex))
		c.Metrics.Opportunities.Set(float64(len(snap.Opportunities)))
	}
	log.Debug().
		Str("id", snap.ID).
		Str("source", string(source)).
		Int("assets", len(assets)).
		Int("fear_greed", snap.Sentiment.FearGreedIndex).
		Dur("took", snap.Duration).
		Msg("cycle published")

	c.publish(ctx, snap)
	return snap, true
}

// Restore seeds the latest snapshot from a previous run. It is ignored once a
// cycle has published.
func (c *Controller) Restore(snap *model.Snapshot) bool {
	if snap == nil {
		return false
	}
	return c.latest.CompareAndSwap(nil, snap)
}

func (c *Controller) publish(ctx context.Context, snap *model.Snapshot) {
	err := c.Sinks.Publish(ctx, snap)
	if err == nil {
		return
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		name := "unknown"
		var se *publisher.SinkError
		if errors.As(e, &se) {
			name = se.Sink
		}
		log.Warn().Err(e).Str("sink", name).Msg("snapshot sink failed")
		if c.Metrics != nil {
			c.Metrics.SinkErrors.WithLabelValues(name).Inc()
		}
	}
}

// Analyze runs the narrative analyst over the latest snapshot and caches the
// result. Concurrent callers get the cached result instead of a second run.
func (c *Controller) Analyze(ctx context.Context) (*model.AnalysisResult, error) {
	snap := c.Latest()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if !c.analyzing.CompareAndSwap(false, true) {
		c.countAnalysis("busy")
		if cached := c.LatestAnalysis(); cached != nil {
			return cached, nil
		}
		return nil, ErrAnalysisBusy
	}
	defer c.analyzing.Store(false)

	res := c.Analyst.Analyze(ctx, snap.Assets, snap.Sentiment)
	if res.Fallback {
		c.countAnalysis("fallback")
	} else {
		c.countAnalysis("ok")
	}
	c.analysis.Store(&res)
	return &res, nil
}

func (c *Controller) countAnalysis(outcome string) {
	if c.Metrics != nil {
		c.Metrics.AnalysisCalls.WithLabelValues(outcome).Inc()
	}
}
