package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"figaro-tab/internal/figaro"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken      string        `env:"TELEGRAM_TOKEN"`
	DatabaseURL        string        `env:"DATABASE_URL"         envDefault:"figaro_tab.db"`
	FigaroAPIBase      string        `env:"FIGARO_API_BASE"`
	FigaroSyncInterval time.Duration `env:"FIGARO_SYNC_INTERVAL" envDefault:"5m"`
	DigestTime         string        `env:"DIGEST_TIME"          envDefault:"08:00"`
	LogLevel           string        `env:"LOG_LEVEL"            envDefault:"info"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	return loadFrom(envMap(os.Environ()))
}

func loadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.FigaroAPIBase = strings.TrimSpace(cfg.FigaroAPIBase)
	cfg.DigestTime = strings.TrimSpace(cfg.DigestTime)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "figaro_tab.db"
	}
	if cfg.FigaroAPIBase == "" {
		cfg.FigaroAPIBase = figaro.DefaultBaseURL
	}

	if cfg.TelegramToken == "" {
		return cfg, errors.New("TELEGRAM_TOKEN is required")
	}
	if cfg.FigaroSyncInterval < 0 {
		return cfg, fmt.Errorf("FIGARO_SYNC_INTERVAL must not be negative, got %s", cfg.FigaroSyncInterval)
	}
	if _, err := time.Parse("15:04", cfg.DigestTime); cfg.DigestTime != "" && err != nil {
		return cfg, fmt.Errorf("DIGEST_TIME %q: expected HH:MM", cfg.DigestTime)
	}
	return cfg, nil
}

func envMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
