package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
	"github.com/newthinker/folio/internal/indicator"
	"github.com/newthinker/folio/internal/marketdata"
	"github.com/newthinker/folio/internal/schedule"
)

// EnvPrefix prefixes environment overrides, e.g. FOLIO_SERVER_PORT
const EnvPrefix = "FOLIO"

type Config struct {
	Server        ServerConfig     `mapstructure:"server"`
	Log           LogConfig        `mapstructure:"log"`
	Currency      CurrencyConfig   `mapstructure:"currency"`
	Indicators    indicator.Params `mapstructure:"indicators"`
	Market        MarketConfig     `mapstructure:"market"`
	Archive       ArchiveConfig    `mapstructure:"archive"`
	Metrics       MetricsConfig    `mapstructure:"metrics"`
	PositionsFile string           `mapstructure:"positions_file"`
}

type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CurrencyConfig holds conversion settings. FallbackRates are units of a
// currency per 1 USD, used when no live rate is available.
type CurrencyConfig struct {
	Base          string             `mapstructure:"base"`
	FallbackRates map[string]float64 `mapstructure:"fallback_rates"`
}

// MarketConfig holds market-data provider settings.
type MarketConfig struct {
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	QuoteTTL     time.Duration `mapstructure:"quote_ttl"`
	HistoryTTL   time.Duration `mapstructure:"history_ttl"`
	RateTTL      time.Duration `mapstructure:"rate_ttl"`
	HistoryRange string        `mapstructure:"history_range"`
	Workers      int           `mapstructure:"workers"`
	// RateLimit caps provider requests per second; 0 disables the cap
	RateLimit float64 `mapstructure:"rate_limit"`
}

// ArchiveConfig holds snapshot archive settings.
type ArchiveConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Type    string           `mapstructure:"type"` // "localfs" or "s3"
	Path    string           `mapstructure:"path"` // For localfs
	S3      archive.S3Config `mapstructure:"s3"`   // For S3
	// Schedule values positions_file periodically while serving; empty disables
	Schedule string `mapstructure:"schedule"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file. An empty path loads defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	fallbacks := map[string]float64{}
	for cur, rate := range currency.DefaultFallbacks() {
		fallbacks[string(cur)] = rate
	}

	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Currency: CurrencyConfig{
			Base:          string(core.BaseCurrency),
			FallbackRates: fallbacks,
		},
		Indicators: indicator.DefaultParams(),
		Market: MarketConfig{
			Provider:     "yahoo",
			Timeout:      10 * time.Second,
			QuoteTTL:     5 * time.Minute,
			HistoryTTL:   time.Hour,
			RateTTL:      time.Hour,
			HistoryRange: string(marketdata.DefaultRange),
			Workers:      4,
			RateLimit:    5,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    archive.TypeLocalFS,
			Path:    "./data/archive",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		PositionsFile: "positions.yaml",
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("currency.base", d.Currency.Base)
	v.SetDefault("currency.fallback_rates", d.Currency.FallbackRates)

	v.SetDefault("indicators.rsi_period", d.Indicators.RSIPeriod)
	v.SetDefault("indicators.macd_fast", d.Indicators.MACDFast)
	v.SetDefault("indicators.macd_slow", d.Indicators.MACDSlow)
	v.SetDefault("indicators.macd_signal", d.Indicators.MACDSignal)
	v.SetDefault("indicators.sma_short", d.Indicators.SMAShort)
	v.SetDefault("indicators.sma_long", d.Indicators.SMALong)
	v.SetDefault("indicators.bollinger_period", d.Indicators.BollingerPeriod)
	v.SetDefault("indicators.bollinger_k", d.Indicators.BollingerK)

	v.SetDefault("market.provider", d.Market.Provider)
	v.SetDefault("market.timeout", d.Market.Timeout)
	v.SetDefault("market.quote_ttl", d.Market.QuoteTTL)
	v.SetDefault("market.history_ttl", d.Market.HistoryTTL)
	v.SetDefault("market.rate_ttl", d.Market.RateTTL)
	v.SetDefault("market.history_range", d.Market.HistoryRange)
	v.SetDefault("market.workers", d.Market.Workers)
	v.SetDefault("market.rate_limit", d.Market.RateLimit)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.schedule", d.Archive.Schedule)
	v.SetDefault("archive.s3.bucket", "")
	v.SetDefault("archive.s3.endpoint", "")
	v.SetDefault("archive.s3.region", "")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")
	v.SetDefault("archive.s3.prefix", "")

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("positions_file", d.PositionsFile)
}

// Fallbacks returns the fallback rates keyed by currency
func (c CurrencyConfig) Fallbacks() (map[core.Currency]float64, error) {
	out := make(map[core.Currency]float64, len(c.FallbackRates))
	for code, rate := range c.FallbackRates {
		cur, err := core.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		if !cur.IsSupported() {
			return nil, fmt.Errorf("fallback for unsupported currency %s", cur)
		}
		if !(rate > 0) {
			return nil, fmt.Errorf("fallback rate for %s must be positive, got %v", cur, rate)
		}
		out[cur] = rate
	}
	return out, nil
}

// Range returns the parsed default history range
func (m MarketConfig) Range() marketdata.Range {
	r, err := marketdata.ParseRange(m.HistoryRange)
	if err != nil {
		return marketdata.DefaultRange
	}
	return r
}

// StorageConfig converts to the archive package's config
func (a ArchiveConfig) StorageConfig() archive.Config {
	return archive.Config{Type: a.Type, Path: a.Path, S3: a.S3}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("log.level: %w", err))
	}

	// Currency validation
	base, err := core.ParseCurrency(c.Currency.Base)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("currency.base: %w", err))
	}
	if base != core.BaseCurrency {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("currency.base must be %s, got %s", core.BaseCurrency, base))
	}
	if _, err := c.Currency.Fallbacks(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("currency.fallback_rates: %w", err))
	}

	if err := c.Indicators.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("indicators: %w", err))
	}

	// Market validation
	if c.Market.Provider == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("market.provider is required"))
	}
	if c.Market.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("market.workers must be at least 1, got %d", c.Market.Workers))
	}
	if c.Market.Timeout < 0 || c.Market.QuoteTTL < 0 || c.Market.HistoryTTL < 0 || c.Market.RateTTL < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("market durations cannot be negative"))
	}
	if c.Market.RateLimit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("market.rate_limit cannot be negative, got %v", c.Market.RateLimit))
	}
	if _, err := marketdata.ParseRange(c.Market.HistoryRange); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("market.history_range: %w", err))
	}

	// Archive validation - only when enabled
	if c.Archive.Enabled {
		switch c.Archive.Type {
		case archive.TypeLocalFS:
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.path required when type is localfs"))
			}
		case archive.TypeS3:
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.s3.bucket required when type is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive.type must be localfs or s3, got %q", c.Archive.Type))
		}
		if c.Archive.Schedule != "" {
			if err := schedule.Validate(c.Archive.Schedule); err != nil {
				return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("archive.schedule: %w", err))
			}
			if c.PositionsFile == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("positions_file required when archive.schedule is set"))
			}
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	return nil
}
