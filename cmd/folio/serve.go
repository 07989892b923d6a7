package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/folio/internal/api"
	"github.com/newthinker/folio/internal/app"
	"github.com/newthinker/folio/internal/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the folio HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	log := e.log
	defer log.Sync()

	cfg := e.cfg
	log.Info("starting folio server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Market.Provider),
		zap.Bool("auth", cfg.Server.APIKey != ""),
	)

	deps := api.Dependencies{
		App:           e.svc,
		PositionsFile: cfg.PositionsFile,
	}
	if e.metrics != nil {
		deps.Metrics = e.metrics
	}
	if e.archiver != nil {
		deps.Snapshots = e.archiver
	}

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if spec := cfg.Archive.Schedule; spec != "" && cfg.Archive.Enabled {
		sched := schedule.New(log, defaultCommandTimeout)
		if err := sched.AddJob(spec, app.NewValuationJob(e.svc, cfg.PositionsFile)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down folio server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
