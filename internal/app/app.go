package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/folio/internal/archive"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
	"github.com/newthinker/folio/internal/indicator"
	"github.com/newthinker/folio/internal/marketdata"
	"github.com/newthinker/folio/internal/metrics"
	"github.com/newthinker/folio/internal/portfolio"
	"github.com/newthinker/folio/internal/signal"
)

// Deps are the collaborators of a Service. Metrics and Archiver are optional.
type Deps struct {
	Provider marketdata.Provider
	Metrics  *metrics.Registry
	Archiver *archive.Archiver
}

// Service fetches market data and runs the valuation and indicator engines
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	market    *marketdata.Cached
	fallbacks map[core.Currency]float64
	metrics   *metrics.Registry
	archiver  *archive.Archiver
}

// Valuation is the result of valuing a portfolio
type Valuation struct {
	AsOf         time.Time          `json:"as_of"`
	Portfolio    *portfolio.Metrics `json:"portfolio"`
	StaleTickers []string           `json:"stale_tickers,omitempty"`
	SnapshotPath string             `json:"snapshot_path,omitempty"`
}

// Analysis is the result of analyzing one ticker
type Analysis struct {
	Ticker     string           `json:"ticker"`
	Currency   core.Currency    `json:"currency"`
	Range      marketdata.Range `json:"range"`
	Indicators *indicator.Set   `json:"indicators"`
	Signals    signal.Summary   `json:"signals"`
	Missing    []string         `json:"missing,omitempty"`
}

// New creates a Service. The provider is wrapped in TTL caches configured
// from cfg.Market.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Provider == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("market data provider is required"))
	}

	fallbacks, err := cfg.Currency.Fallbacks()
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	if cfg.Market.Workers < 1 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("market.workers must be at least 1, got %d", cfg.Market.Workers))
	}

	opts := marketdata.CacheOptions{
		QuoteTTL:     cfg.Market.QuoteTTL,
		HistoryTTL:   cfg.Market.HistoryTTL,
		RateTTL:      cfg.Market.RateTTL,
		FetchTimeout: cfg.Market.Timeout,
	}
	if deps.Metrics != nil {
		opts.Observer = deps.Metrics
	}

	return &Service{
		cfg:       cfg,
		logger:    logger,
		market:    marketdata.NewCached(deps.Provider, opts),
		fallbacks: fallbacks,
		metrics:   deps.Metrics,
		archiver:  deps.Archiver,
	}, nil
}

// Normalizer returns a currency normalizer bound to ctx that reads live
// rates through the cache and falls back to the configured divisors.
func (s *Service) Normalizer(ctx context.Context) *currency.Normalizer {
	return currency.NewNormalizer(s.market.Rates().Lookup(ctx), currency.Options{
		Fallbacks: s.fallbacks,
		Logger:    s.logger,
		OnFallback: func(cur core.Currency, rate float64, cause error) {
			if s.metrics != nil {
				s.metrics.RecordConversionFallback(cur.String())
			}
		},
		OnError: func(cur core.Currency, err error) {
			if s.metrics != nil {
				s.metrics.RecordConversionError(cur.String())
			}
		},
	})
}

// Value fetches quotes for every ticker in positions and values the
// portfolio. Tickers without a usable quote are valued at purchase price
// and listed in StaleTickers.
func (s *Service) Value(ctx context.Context, positions []core.Position) (*Valuation, error) {
	start := time.Now()

	n := s.Normalizer(ctx)
	quotes, err := s.fetchQuotes(ctx, tickersOf(positions), n)
	if err != nil {
		s.recordValuation("error", start)
		return nil, err
	}

	m, err := portfolio.Aggregate(positions, quotes, n)
	if err != nil {
		s.recordValuation("error", start)
		return nil, fmt.Errorf("valuing portfolio: %w", err)
	}

	stale := m.StaleTickers()
	for _, t := range stale {
		s.logger.Warn("no quote, valued at purchase price",
			zap.String("ticker", t),
			zap.Error(core.ErrMissingQuote),
		)
	}

	v := &Valuation{
		AsOf:         start.UTC(),
		Portfolio:    m.Rounded(),
		StaleTickers: stale,
	}

	s.recordValuation("success", start)
	if s.metrics != nil {
		s.metrics.SetPortfolioValue(m.TotalValue)
		s.metrics.RecordStaleQuotes(len(stale))
	}

	s.logger.Info("portfolio valued",
		zap.Int("positions", len(positions)),
		zap.Int("quotes", len(quotes)),
		zap.Float64("total_value", v.Portfolio.TotalValue),
		zap.Duration("took", time.Since(start)),
	)

	v.SnapshotPath = s.archive(ctx, archive.KindValuation, v)
	return v, nil
}

// Analyze computes indicators and signals for ticker over rng.
func (s *Service) Analyze(ctx context.Context, ticker string, rng marketdata.Range) (*Analysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("ticker is required"))
	}
	if rng == "" {
		rng = s.cfg.Market.Range()
	}

	series, err := s.market.FetchHistory(ctx, ticker, rng)
	if err != nil {
		s.recordIndicators("error")
		return nil, fmt.Errorf("fetching %s history: %w", ticker, err)
	}

	set, err := indicator.Compute(series, s.cfg.Indicators)
	if err != nil {
		s.recordIndicators("error")
		return nil, fmt.Errorf("analyzing %s: %w", ticker, err)
	}
	set.Ticker = ticker

	summary := signal.Interpret(set)
	s.recordIndicators("success")
	if s.metrics != nil {
		for _, r := range summary.Readings() {
			s.metrics.RecordSignal(r.Indicator, string(r.Signal))
		}
	}

	a := &Analysis{
		Ticker:     ticker,
		Currency:   currency.Detect(ticker),
		Range:      rng,
		Indicators: set,
		Signals:    summary,
		Missing:    set.Undefined(),
	}

	s.logger.Debug("ticker analyzed",
		zap.String("ticker", ticker),
		zap.String("range", string(rng)),
		zap.Int("bars", set.Bars),
		zap.Strings("missing", a.Missing),
	)

	s.archive(ctx, archive.KindAnalysis, a)
	return a, nil
}

// fetchQuotes fetches and prices quotes concurrently. Failed tickers are
// logged and left out of the result.
func (s *Service) fetchQuotes(ctx context.Context, tickers []string, n *currency.Normalizer) (map[string]core.PriceQuote, error) {
	builder := marketdata.NewQuoteBuilder(n)
	quotes := make(map[string]core.PriceQuote, len(tickers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Market.Workers)

	for _, ticker := range tickers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			raw, err := s.market.FetchQuote(ctx, ticker)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.logger.Warn("quote fetch failed", zap.String("ticker", ticker), zap.Error(err))
				return nil
			}

			q, err := builder.Build(raw)
			if err != nil {
				s.logger.Warn("quote conversion failed", zap.String("ticker", ticker), zap.Error(err))
				return nil
			}

			mu.Lock()
			quotes[ticker] = q
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *Service) archive(ctx context.Context, kind string, payload any) string {
	if s.archiver == nil || !s.cfg.Archive.Enabled {
		return ""
	}
	path, err := s.archiver.Save(ctx, kind, payload)
	if err != nil {
		s.logger.Warn("archiving snapshot failed", zap.String("kind", kind), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSnapshot(kind, "error")
		}
		return ""
	}
	if s.metrics != nil {
		s.metrics.RecordSnapshot(kind, "success")
	}
	return path
}

func (s *Service) recordValuation(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordValuation(status, time.Since(start).Seconds())
	}
}

func (s *Service) recordIndicators(status string) {
	if s.metrics != nil {
		s.metrics.RecordIndicators(status)
	}
}

// tickersOf returns the distinct tickers of positions, sorted
func tickersOf(positions []core.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.Ticker]; ok {
			continue
		}
		seen[p.Ticker] = struct{}{}
		tickers = append(tickers, p.Ticker)
	}
	sort.Strings(tickers)
	return tickers
}
