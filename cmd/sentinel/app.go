package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"Sentinels/internal/analysis"
	"Sentinels/internal/api"
	"Sentinels/internal/collector"
	"Sentinels/internal/config"
	"Sentinels/internal/metrics"
	"Sentinels/internal/noise"
	"Sentinels/internal/notifier"
	"Sentinels/internal/publisher"
	"Sentinels/internal/recorder"
	"Sentinels/internal/scheduler"
	"Sentinels/internal/synthesizer"
)

type app struct {
	controller *scheduler.Controller
	scheduler  *scheduler.Scheduler
	server     *api.Server
	telegram   *notifier.TelegramNotifier
	recorder   recorder.Recorder
	closers    []func() error
}

// build wires the pipeline. Outer surfaces (HTTP, Redis, SQL, Telegram) are
// only attached for the long-running service.
func build(ctx context.Context, cfg *config.Config, service bool) (*app, error) {
	m := metrics.New()
	src := noise.NewLocked(cfg.Feed.Seed)

	fetcher := collector.NewCoinCapFetcher(cfg.Feed.Endpoint, cfg.Feed.APIKey, cfg.Proxy)
	log.Info().Str("source", fetcher.Name()).Str("endpoint", fetcher.Endpoint).Msg("data source")
	col := collector.NewCollector(fetcher, src, collector.Options{
		Timeout:         cfg.Feed.Timeout,
		RatePerSecond:   cfg.Feed.RatePerSecond,
		Burst:           cfg.Feed.Burst,
		BreakerFailures: cfg.Feed.BreakerFailures,
		BreakerCooldown: cfg.Feed.BreakerCooldown,
		OnFallback:      m.FeedFallback,
	})

	analyst := analysis.NewAnalyst(cfg.Analysis.APIKey, cfg.Analysis.Model, cfg.Analysis.BaseURL, cfg.Proxy, cfg.Analysis.Timeout)
	if cfg.Analysis.APIKey == "" {
		log.Warn().Msg("analysis API key not set, narrative analysis will return the setup notice")
	}

	a := &app{recorder: recorder.NewNoopRecorder()}
	var sinks []publisher.Sink
	var hub *api.Hub
	var mirror *publisher.RedisSink

	if service {
		hub = api.NewHub()
		sinks = append(sinks, hub)

		if cfg.Redis.Addr != "" {
			rdb, err := publisher.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				log.Warn().Err(err).Msg("redis unavailable, snapshot mirror disabled")
			} else {
				mirror = publisher.NewRedisSink(rdb, cfg.Redis.Prefix, cfg.Redis.TTL)
				sinks = append(sinks, mirror)
				a.closers = append(a.closers, rdb.Close)
			}
		}

		if cfg.Database.Driver != "none" {
			rec, err := recorder.NewSQLRecorder(cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				log.Warn().Err(err).Msg("init digest recorder failed, using noop")
			} else {
				a.recorder = rec
			}
		}

		if cfg.TelegramEnabled() {
			a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		}
	}
	a.closers = append(a.closers, a.recorder.Close)

	a.controller = scheduler.NewController(col, synthesizer.New(src), analyst, m, sinks...)
	if mirror != nil {
		restoreSnapshot(ctx, a.controller, mirror)
	}

	var sender scheduler.Sender
	if a.telegram != nil {
		sender = a.telegram
	}
	a.scheduler = scheduler.NewScheduler(ctx, a.controller, sender, a.recorder)

	if service {
		a.server = api.NewServer(cfg.HTTP.Addr, a.controller, hub, m.Gatherer()).WithDigests(a.recorder)
	}
	return a, nil
}

// restoreSnapshot serves the mirrored snapshot from a previous run until the
// first cycle publishes.
func restoreSnapshot(ctx context.Context, ctrl *scheduler.Controller, mirror *publisher.RedisSink) {
	snap, err := mirror.Latest(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read mirrored snapshot")
		return
	}
	if ctrl.Restore(snap) {
		log.Info().Str("id", snap.ID).Time("generated_at", snap.GeneratedAt).Msg("restored snapshot from redis")
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
