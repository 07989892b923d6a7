package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/app"
	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/logger"
	"github.com/newthinker/folio/internal/marketdata"
	"github.com/newthinker/folio/internal/metrics"
)

// env is everything a command needs, built from the config file
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	svc      *app.Service
	metrics  *metrics.Registry
	archiver *archive.Archiver
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	return logger.NewWithLevel(debug || cfg.Log.Development, level)
}

func providers(cfg *config.Config) *marketdata.Registry {
	yahoo := marketdata.NewYahoo(cfg.Market.Timeout)
	yahoo.SetRateLimit(cfg.Market.RateLimit)

	reg := marketdata.NewRegistry()
	reg.Register(yahoo)
	return reg
}

// setup loads the config and wires the service. Callers must Sync the
// returned logger.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	provider, err := providers(cfg).MustGet(cfg.Market.Provider)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log}
	deps := app.Deps{Provider: provider}

	if cfg.Metrics.Enabled {
		e.metrics = metrics.NewRegistry()
		deps.Metrics = e.metrics
	}

	if cfg.Archive.Enabled {
		store, err := archive.New(cfg.Archive.StorageConfig())
		if err != nil {
			return nil, fmt.Errorf("creating archive: %w", err)
		}
		e.archiver = archive.NewArchiver(store)
		deps.Archiver = e.archiver
		log.Info("snapshot archive enabled", zap.String("type", cfg.Archive.Type))
	}

	e.svc, err = app.New(cfg, deps, log)
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return e, nil
}
