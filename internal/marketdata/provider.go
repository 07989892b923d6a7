// Package marketdata fetches quotes, price history and exchange rates from
// market-data providers.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// Quote is a raw last price as reported by a provider, in the ticker's
// native currency.
type Quote struct {
	Ticker string
	Price  float64
	Time   time.Time
	Source string
}

// Provider defines the interface for market-data sources
type Provider interface {
	Name() string

	FetchQuote(ctx context.Context, ticker string) (*Quote, error)
	FetchHistory(ctx context.Context, ticker string, rng Range) (core.PriceSeries, error)
	// FetchRate returns units of cur per 1 USD
	FetchRate(ctx context.Context, cur core.Currency) (float64, error)
}

// Range is a history lookback window
type Range string

const (
	Range1M Range = "1mo"
	Range3M Range = "3mo"
	Range6M Range = "6mo"
	Range1Y Range = "1y"
	Range2Y Range = "2y"

	DefaultRange = Range1Y
)

// Ranges lists the supported windows, shortest first
var Ranges = []Range{Range1M, Range3M, Range6M, Range1Y, Range2Y}

// ParseRange validates s. An empty string selects DefaultRange.
func ParseRange(s string) (Range, error) {
	if s == "" {
		return DefaultRange, nil
	}
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported range %q (want one of %v)", s, Ranges)
}

// Start returns the first day covered by r when looking back from end.
func (r Range) Start(end time.Time) time.Time {
	switch r {
	case Range1M:
		return end.AddDate(0, -1, 0)
	case Range3M:
		return end.AddDate(0, -3, 0)
	case Range6M:
		return end.AddDate(0, -6, 0)
	case Range2Y:
		return end.AddDate(-2, 0, 0)
	default:
		return end.AddDate(-1, 0, 0)
	}
}
