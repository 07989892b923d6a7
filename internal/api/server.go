package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlerapi "github.com/newthinker/folio/internal/api/handler/api"
	"github.com/newthinker/folio/internal/api/middleware"
	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/metrics"
)

// Server represents the HTTP server for folio
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Service is what the API needs from app.Service
type Service interface {
	handlerapi.ValuationApp
	handlerapi.AnalysisApp
}

// Dependencies holds the collaborators of the API routes. Snapshots and
// Metrics are optional.
type Dependencies struct {
	App           Service
	Snapshots     handlerapi.SnapshotStore
	Metrics       *metrics.Registry
	PositionsFile string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.App == nil {
		return nil, fmt.Errorf("app is required")
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	s.httpServer.Handler = metrics.LoggingMiddleware(logger)(handler)

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	v1 := http.NewServeMux()

	portfolio := handlerapi.NewPortfolioHandler(deps.App, deps.PositionsFile)
	v1.HandleFunc("POST /api/v1/portfolio/value", portfolio.Value)
	v1.HandleFunc("GET /api/v1/portfolio", portfolio.ValueFile)

	analysis := handlerapi.NewAnalysisHandler(deps.App)
	v1.HandleFunc("GET /api/v1/analysis/{ticker}", analysis.Analyze)

	if deps.Snapshots != nil {
		snapshots := handlerapi.NewSnapshotsHandler(deps.Snapshots)
		v1.HandleFunc("GET /api/v1/snapshots/{kind}", snapshots.List)
		v1.HandleFunc("GET /api/v1/snapshots/{kind}/{day}/{id}", snapshots.Get)
	}

	s.mux.Handle("/api/v1/", middleware.APIKeyAuth(cfg.APIKey)(v1))
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
