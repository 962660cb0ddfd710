package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"Sentinels/internal/liquidation"
	"Sentinels/internal/model"
	"Sentinels/internal/notifier"
	"Sentinels/internal/recorder"
)

// Sender delivers formatted messages, typically to Telegram.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Controller *Controller
	Notifier   Sender
	Recorder   recorder.Recorder
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler. tn may be nil to disable chat delivery.
func NewScheduler(ctx context.Context, ctrl *Controller, tn Sender, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Controller: ctrl,
		Notifier:   tn,
		Recorder:   rec,
		Ctx:        ctx,
	}
}

// RegisterAll registers the refresh and digest tasks, plus analysis when
// analysisCron is set.
func (s *Scheduler) RegisterAll(refreshCron, digestCron, analysisCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	if analysisCron != "" {
		if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
			return fmt.Errorf("register analysis task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Boot publishes a first snapshot before the cron loop starts. The cycle is
// bounded by the collector timeout.
func (s *Scheduler) Boot() {
	s.RunCycleNow()
	s.Start()
}

// RunCycleNow executes one refresh immediately, e.g. on start.
func (s *Scheduler) RunCycleNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.Controller.RunCycle(s.Ctx)
}

func (s *Scheduler) digestTask() {
	snap := s.Controller.Latest()
	if snap == nil {
		log.Info().Msg("digest skipped, no snapshot yet")
		return
	}
	if err := s.Recorder.RecordDigest(s.Ctx, recorder.NewDigest(snap)); err != nil {
		log.Error().Err(err).Msg("record digest")
	}
	s.trySend(notifier.FormatDigest(snap))
}

func (s *Scheduler) analysisTask() {
	res, err := s.Controller.Analyze(s.Ctx)
	if err != nil {
		log.Info().Err(err).Msg("scheduled analysis skipped")
		return
	}
	log.Info().Str("outlook", string(res.Outlook)).Bool("fallback", res.Fallback).Msg("analysis refreshed")
}

const noData = "⏳ No market data yet. Try again in a moment."

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	name := fields[0]
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}

	snap := s.Controller.Latest()
	switch name {
	case "/sentiment":
		if snap == nil {
			return noData
		}
		return notifier.FormatSentiment(snap)
	case "/opportunities":
		if snap == nil {
			return noData
		}
		return notifier.FormatOpportunities(snap.Opportunities, 0)
	case "/liquidations":
		if snap == nil {
			return noData
		}
		arg := ""
		if len(fields) > 1 {
			arg = strings.ToUpper(fields[1])
		}
		filter, ok := model.ParseLiquidationFilter(arg)
		if !ok {
			return "Unknown filter. Use /liquidations, /liquidations long or /liquidations short."
		}
		return notifier.FormatLiquidations(liquidation.Buckets(snap.Liquidations), filter)
	case "/best":
		if snap == nil {
			return noData
		}
		return notifier.FormatBestSignal(snap.BestSignal)
	case "/analysis":
		res, err := s.Controller.Analyze(s.Ctx)
		if errors.Is(err, ErrNoSnapshot) {
			return noData
		}
		if err != nil {
			return notifier.FormatAnalysis(s.Controller.LatestAnalysis())
		}
		return notifier.FormatAnalysis(res)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
