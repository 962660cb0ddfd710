package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"Sentinels/internal/analysis"
	"Sentinels/internal/collector"
)

// Config holds all application configuration.
type Config struct {
	Feed struct {
		Endpoint        string        `yaml:"endpoint"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout"`
		RatePerSecond   float64       `yaml:"rate_per_second"`
		Burst           int           `yaml:"burst"`
		BreakerFailures uint32        `yaml:"breaker_failures"`
		BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
		// Seed pins the noise generator; 0 seeds from the clock.
		Seed int64 `yaml:"seed"`
	} `yaml:"feed"`
	Schedule struct {
		RefreshCron  string `yaml:"refresh_cron"`
		DigestCron   string `yaml:"digest_cron"`
		AnalysisCron string `yaml:"analysis_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Analysis struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"analysis"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file, the YAML config, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("FEED_ENDPOINT", &c.Feed.Endpoint)
	str("COINCAP_API_KEY", &c.Feed.APIKey)
	str("CRON_REFRESH", &c.Schedule.RefreshCron)
	str("CRON_DIGEST", &c.Schedule.DigestCron)
	str("CRON_ANALYSIS", &c.Schedule.AnalysisCron)
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("GEMINI_API_KEY", &c.Analysis.APIKey)
	str("API_KEY", &c.Analysis.APIKey)
	str("ANALYSIS_MODEL", &c.Analysis.Model)
	str("LOG_LEVEL", &c.Log.Level)
	str("HTTPS_PROXY", &c.Proxy)

	if v := os.Getenv("FEED_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FEED_TIMEOUT: %w", err)
		}
		c.Feed.Timeout = d
	}
	if v := os.Getenv("FEED_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FEED_SEED: %w", err)
		}
		c.Feed.Seed = n
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Feed.Endpoint == "" {
		c.Feed.Endpoint = collector.DefaultEndpoint
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = collector.DefaultTimeout
	}
	if c.Feed.BreakerCooldown == 0 {
		c.Feed.BreakerCooldown = 30 * time.Second
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "@every 1s"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 */5 * * * *"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "sentinels:"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Minute
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "data/sentinels.db"
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = analysis.DefaultModel
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = analysis.DefaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TelegramEnabled reports whether both bot token and chat are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.Feed.Timeout < 0 {
		return fmt.Errorf("feed.timeout must not be negative")
	}
	if c.Feed.RatePerSecond < 0 {
		return fmt.Errorf("feed.rate_per_second must not be negative")
	}
	if c.Schedule.RefreshCron == "" {
		return fmt.Errorf("schedule.refresh_cron is required")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}
	return nil
}
