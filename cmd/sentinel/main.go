package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"Sentinels/internal/config"
	"Sentinels/internal/logging"
)

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "sentinel",
		Short:        "Crypto market telemetry pipeline",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "Path to the YAML config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the refresh loop, HTTP API and Telegram bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			return runService(cfg)
		},
	}

	var analyze bool
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single refresh cycle and print the snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg, analyze)
		},
	}
	onceCmd.Flags().BoolVar(&analyze, "analyze", false, "Also run the narrative analysis and print it")

	rootCmd.AddCommand(runCmd, onceCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level)
	return cfg, nil
}

func runService(cfg *config.Config) error {
	log.Info().Msg("Sentinels starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := build(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.scheduler.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron, cfg.Schedule.AnalysisCron); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.Start() }()

	a.scheduler.Boot()
	defer a.scheduler.Stop()

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, a.scheduler.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	log.Info().Msg("Sentinels is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return err
		}
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("Sentinels stopped")
	return nil
}

func runOnce(ctx context.Context, cfg *config.Config, analyze bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := build(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	snap, _ := a.controller.RunCycle(ctx)
	out := map[string]any{"snapshot": snap}
	if analyze {
		res, err := a.controller.Analyze(ctx)
		if err != nil {
			return err
		}
		out["analysis"] = res
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
