// Package metrics holds the Prometheus collectors for the refresh pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all pipeline metrics on a private registry.
type Registry struct {
	reg *prometheus.Registry

	Cycles        *prometheus.CounterVec
	CyclesSkipped prometheus.Counter
	CycleDuration prometheus.Histogram
	FeedFallbacks *prometheus.CounterVec
	FearGreed     prometheus.Gauge
	Opportunities prometheus.Gauge
	SinkErrors    *prometheus.CounterVec
	AnalysisCalls *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinels_cycles_total",
			Help: "Completed refresh cycles by feed source",
		}, []string{"source"}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinels_cycles_skipped_total",
			Help: "Cycle requests dropped because a cycle was already in flight",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinels_cycle_duration_seconds",
			Help:    "Wall time of one refresh cycle",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 2.5, 5},
		}),
		FeedFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinels_feed_fallbacks_total",
			Help: "Backup substitutions by reason",
		}, []string{"reason"}),
		FearGreed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinels_fear_greed_index",
			Help: "Latest fear/greed index",
		}),
		Opportunities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinels_opportunities",
			Help: "Opportunities flagged in the latest cycle",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinels_sink_errors_total",
			Help: "Snapshot sink failures by sink",
		}, []string{"sink"}),
		AnalysisCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinels_analysis_total",
			Help: "Narrative analysis runs by outcome",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(
		r.Cycles, r.CyclesSkipped, r.CycleDuration, r.FeedFallbacks,
		r.FearGreed, r.Opportunities, r.SinkErrors, r.AnalysisCalls,
		collectors.NewGoCollector(),
	)
	return r
}

// Gatherer exposes the private registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// FeedFallback records one backup substitution.
func (r *Registry) FeedFallback(reason string) {
	r.FeedFallbacks.WithLabelValues(reason).Inc()
}
