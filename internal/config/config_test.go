package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"figaro-tab/internal/figaro"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFrom(map[string]string{"TELEGRAM_TOKEN": " 123:abc "})
	require.NoError(t, err)
	assert.Equal(t, Config{
		TelegramToken:      "123:abc",
		DatabaseURL:        "figaro_tab.db",
		FigaroAPIBase:      figaro.DefaultBaseURL,
		FigaroSyncInterval: 5 * time.Minute,
		DigestTime:         "08:00",
		LogLevel:           "info",
	}, cfg)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := loadFrom(map[string]string{
		"TELEGRAM_TOKEN":       "t",
		"DATABASE_URL":         "/data/bot.db",
		"FIGARO_API_BASE":      "http://localhost:9000",
		"FIGARO_SYNC_INTERVAL": "90s",
		"DIGEST_TIME":          "07:30",
		"LOG_LEVEL":            "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, "/data/bot.db", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:9000", cfg.FigaroAPIBase)
	assert.Equal(t, 90*time.Second, cfg.FigaroSyncInterval)
	assert.Equal(t, "07:30", cfg.DigestTime)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing token":     {},
		"blank token":       {"TELEGRAM_TOKEN": "   "},
		"bad interval":      {"TELEGRAM_TOKEN": "t", "FIGARO_SYNC_INTERVAL": "soon"},
		"negative interval": {"TELEGRAM_TOKEN": "t", "FIGARO_SYNC_INTERVAL": "-1m"},
		"bad digest time":   {"TELEGRAM_TOKEN": "t", "DIGEST_TIME": "25:00"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadFrom(environ)
			assert.Error(t, err)
		})
	}
}

func TestEnvMap(t *testing.T) {
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, envMap([]string{"A=1", "B=x=y", "junk"}))
}
