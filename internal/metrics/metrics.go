package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	valuations          *prometheus.CounterVec
	valuationDuration   prometheus.Histogram
	portfolioValue      prometheus.Gauge
	staleQuotes         prometheus.Counter
	indicatorsComputed  *prometheus.CounterVec
	signalsInterpreted  *prometheus.CounterVec
	conversionFallbacks *prometheus.CounterVec
	conversionErrors    *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	snapshotsArchived   *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.valuations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_valuations_total",
			Help: "Total number of portfolio valuations",
		},
		[]string{"status"},
	)
	r.valuationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_valuation_duration_seconds",
			Help:    "Portfolio valuation duration in seconds, including quote fetching",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_portfolio_value_usd",
			Help: "Total market value of the last valued portfolio in USD",
		},
	)
	r.staleQuotes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_stale_quotes_total",
			Help: "Positions valued at purchase price for lack of a quote",
		},
	)
	r.indicatorsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_indicator_computations_total",
			Help: "Total number of indicator set computations",
		},
		[]string{"status"},
	)
	r.signalsInterpreted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_signals_total",
			Help: "Qualitative signals produced per indicator",
		},
		[]string{"indicator", "signal"},
	)
	r.conversionFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_conversion_fallbacks_total",
			Help: "Conversions that used a fallback rate instead of a live one",
		},
		[]string{"currency"},
	)
	r.conversionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_conversion_errors_total",
			Help: "Conversions that failed with no live or fallback rate",
		},
		[]string{"currency"},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_lookups_total",
			Help: "Market data cache lookups",
		},
		[]string{"kind", "result"},
	)
	r.snapshotsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_snapshots_archived_total",
			Help: "Snapshots written to the archive",
		},
		[]string{"kind", "status"},
	)

	reg.MustRegister(r.valuations)
	reg.MustRegister(r.valuationDuration)
	reg.MustRegister(r.portfolioValue)
	reg.MustRegister(r.staleQuotes)
	reg.MustRegister(r.indicatorsComputed)
	reg.MustRegister(r.signalsInterpreted)
	reg.MustRegister(r.conversionFallbacks)
	reg.MustRegister(r.conversionErrors)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.snapshotsArchived)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordValuation records a portfolio valuation.
func (r *Registry) RecordValuation(status string, duration float64) {
	r.valuations.WithLabelValues(status).Inc()
	r.valuationDuration.Observe(duration)
}

// SetPortfolioValue sets the last valued portfolio total.
func (r *Registry) SetPortfolioValue(usd float64) {
	r.portfolioValue.Set(usd)
}

// RecordStaleQuotes adds positions valued without a quote.
func (r *Registry) RecordStaleQuotes(n int) {
	r.staleQuotes.Add(float64(n))
}

// RecordIndicators records an indicator set computation.
func (r *Registry) RecordIndicators(status string) {
	r.indicatorsComputed.WithLabelValues(status).Inc()
}

// RecordSignal records an interpreted signal.
func (r *Registry) RecordSignal(indicator, signal string) {
	r.signalsInterpreted.WithLabelValues(indicator, signal).Inc()
}

// RecordConversionFallback records use of a fallback rate.
func (r *Registry) RecordConversionFallback(currency string) {
	r.conversionFallbacks.WithLabelValues(currency).Inc()
}

// RecordConversionError records a failed conversion.
func (r *Registry) RecordConversionError(currency string) {
	r.conversionErrors.WithLabelValues(currency).Inc()
}

// RecordCacheHit records a market data cache hit.
func (r *Registry) RecordCacheHit(kind string) {
	r.cacheLookups.WithLabelValues(kind, "hit").Inc()
}

// RecordCacheMiss records a market data cache miss.
func (r *Registry) RecordCacheMiss(kind string) {
	r.cacheLookups.WithLabelValues(kind, "miss").Inc()
}

// RecordSnapshot records an archive write.
func (r *Registry) RecordSnapshot(kind, status string) {
	r.snapshotsArchived.WithLabelValues(kind, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
