package marketdata

import (
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
)

// QuoteBuilder turns raw provider quotes into priced quotes with a USD price.
type QuoteBuilder struct {
	normalizer *currency.Normalizer
}

// NewQuoteBuilder creates a builder converting through n
func NewQuoteBuilder(n *currency.Normalizer) *QuoteBuilder {
	return &QuoteBuilder{normalizer: n}
}

// Build detects the ticker's currency and converts the price. Prices keep
// full precision so sub-cent USD prices stay valid; rounding happens on
// display.
func (b *QuoteBuilder) Build(q *Quote) (core.PriceQuote, error) {
	usd, cur, err := b.normalizer.TickerToCommon(q.Ticker, q.Price)
	if err != nil {
		return core.PriceQuote{}, err
	}

	return core.PriceQuote{
		Ticker:   q.Ticker,
		Price:    q.Price,
		Currency: cur,
		PriceUSD: usd,
		AsOf:     q.Time,
		Source:   q.Source,
	}, nil
}
