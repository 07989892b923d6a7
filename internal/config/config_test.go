package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090

currency:
  fallback_rates:
    ARS: 1150
    BRL: 5.4

indicators:
  rsi_period: 21

market:
  quote_ttl: 30s
  history_range: 2y
  workers: 8

archive:
  enabled: true
  type: localfs
  path: "/tmp/folio/archive"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 21, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 26, cfg.Indicators.MACDSlow, "unset keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Market.QuoteTTL)
	assert.Equal(t, time.Hour, cfg.Market.RateTTL)
	assert.Equal(t, marketdata.Range2Y, cfg.Market.Range())
	assert.Equal(t, 8, cfg.Market.Workers)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "/tmp/folio/archive", cfg.Archive.StorageConfig().Path)

	fallbacks, err := cfg.Currency.Fallbacks()
	require.NoError(t, err)
	assert.Equal(t, 1150.0, fallbacks[core.ARS])
	assert.Equal(t, 5.4, fallbacks[core.BRL])

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "yahoo", cfg.Market.Provider)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	fallbacks, err := cfg.Currency.Fallbacks()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, fallbacks[core.ARS])
	assert.Equal(t, 17.0, fallbacks[core.MXN])
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_SERVER_PORT", "7000")
	t.Setenv("FOLIO_TEST_API_KEY", "s3cret")

	path := writeConfig(t, `
server:
  api_key: "${FOLIO_TEST_API_KEY}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "USD", cfg.Currency.Base)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 4, cfg.Market.Workers)
	assert.Equal(t, 5.0, cfg.Market.RateLimit)
	assert.False(t, cfg.Archive.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   *core.Error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, core.ErrConfigInvalid},
		{"non-USD base", func(c *Config) { c.Currency.Base = "EUR" }, core.ErrConfigInvalid},
		{"unknown base", func(c *Config) { c.Currency.Base = "XXZ" }, core.ErrConfigInvalid},
		{"unsupported fallback", func(c *Config) { c.Currency.FallbackRates = map[string]float64{"eur": 0.9} }, core.ErrConfigInvalid},
		{"zero fallback", func(c *Config) { c.Currency.FallbackRates = map[string]float64{"ars": 0} }, core.ErrConfigInvalid},
		{"bad indicator params", func(c *Config) { c.Indicators.SMAShort = 300 }, core.ErrConfigInvalid},
		{"missing provider", func(c *Config) { c.Market.Provider = "" }, core.ErrConfigMissing},
		{"no workers", func(c *Config) { c.Market.Workers = 0 }, core.ErrConfigInvalid},
		{"negative ttl", func(c *Config) { c.Market.RateTTL = -time.Second }, core.ErrConfigInvalid},
		{"negative rate limit", func(c *Config) { c.Market.RateLimit = -1 }, core.ErrConfigInvalid},
		{"unlimited rate", func(c *Config) { c.Market.RateLimit = 0 }, nil},
		{"bad range", func(c *Config) { c.Market.HistoryRange = "5y" }, core.ErrConfigInvalid},
		{"archive localfs without path", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Path = ""
		}, core.ErrConfigMissing},
		{"archive s3 without bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Type = "s3"
		}, core.ErrConfigMissing},
		{"archive unknown type", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Type = "ftp"
		}, core.ErrConfigInvalid},
		{"disabled archive is not checked", func(c *Config) { c.Archive.Type = "ftp" }, nil},
		{"archive schedule", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Schedule = "30 21 * * 1-5"
		}, nil},
		{"archive schedule descriptor", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Schedule = "@every 1h"
		}, nil},
		{"archive bad schedule", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Schedule = "every tuesday"
		}, core.ErrConfigInvalid},
		{"archive schedule without positions", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Schedule = "@daily"
			c.PositionsFile = ""
		}, core.ErrConfigMissing},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
