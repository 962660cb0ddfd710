package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sentinels/internal/analysis"
	"Sentinels/internal/collector"
)

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdir(t)
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, collector.DefaultEndpoint, cfg.Feed.Endpoint)
	assert.Equal(t, collector.DefaultTimeout, cfg.Feed.Timeout)
	assert.Equal(t, "@every 1s", cfg.Schedule.RefreshCron)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.DigestCron)
	assert.Empty(t, cfg.Schedule.AnalysisCron)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "sentinels:", cfg.Redis.Prefix)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/sentinels.db", cfg.Database.DSN)
	assert.Equal(t, analysis.DefaultModel, cfg.Analysis.Model)
	assert.Equal(t, analysis.DefaultTimeout, cfg.Analysis.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	yml := `
feed:
  timeout: 1500ms
  breaker_failures: 3
schedule:
  refresh_cron: "@every 5s"
redis:
  addr: localhost:6379
  ttl: 30s
telegram:
  bot_token: yaml-token
  chat_id: "42"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("API_KEY", "gem-key")
	t.Setenv("FEED_SEED", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Feed.Timeout)
	assert.Equal(t, uint32(3), cfg.Feed.BreakerFailures)
	assert.Equal(t, int64(7), cfg.Feed.Seed)
	assert.Equal(t, "@every 5s", cfg.Schedule.RefreshCron)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "gem-key", cfg.Analysis.APIKey)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9999\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoad_BadEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv("FEED_TIMEOUT", "soon")
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "FEED_TIMEOUT")
}

func TestLoad_BadYAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed: [oops"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		dir := chdir(t)
		cfg, err := Load(filepath.Join(dir, "missing.yaml"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }, "database.dsn"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }, "telegram"},
		{"negative timeout", func(c *Config) { c.Feed.Timeout = -time.Second }, "feed.timeout"},
		{"empty refresh", func(c *Config) { c.Schedule.RefreshCron = "" }, "refresh_cron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
