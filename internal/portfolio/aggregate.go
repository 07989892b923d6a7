// Package portfolio values a set of positions in the base currency.
package portfolio

import (
	"fmt"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
)

// PositionMetric is the valuation of one position. All monetary fields
// except the native prices are in the base currency.
type PositionMetric struct {
	ID           string        `json:"id"`
	Ticker       string        `json:"ticker"`
	Currency     core.Currency `json:"currency"`
	Quantity     float64       `json:"quantity"`
	PurchaseDate time.Time     `json:"purchase_date"`

	PurchasePrice    float64 `json:"purchase_price"`
	PurchasePriceUSD float64 `json:"purchase_price_usd"`
	CurrentPrice     float64 `json:"current_price"`
	CurrentPriceUSD  float64 `json:"current_price_usd"`
	// Stale is set when no quote was available and the purchase price
	// stands in for the current price.
	Stale bool `json:"stale"`

	Invested          float64 `json:"invested"`
	CurrentValue      float64 `json:"current_value"`
	PnL               float64 `json:"pnl"`
	PnLPercent        float64 `json:"pnl_pct"`
	AllocationPercent float64 `json:"allocation_pct"`
}

// Metrics is the valuation of a whole portfolio.
type Metrics struct {
	TotalInvested   float64          `json:"total_invested"`
	TotalValue      float64          `json:"total_value"`
	TotalPnL        float64          `json:"total_pnl"`
	TotalPnLPercent float64          `json:"total_pnl_pct"`
	Positions       []PositionMetric `json:"positions"`
}

// StaleTickers returns the tickers valued at purchase price.
func (m *Metrics) StaleTickers() []string {
	var stale []string
	for _, p := range m.Positions {
		if p.Stale {
			stale = append(stale, p.Ticker)
		}
	}
	return stale
}

// Aggregate values positions against quotes (keyed by ticker). A missing
// quote is not an error: the position is valued at its purchase price and
// flagged Stale. Conversion failures are returned.
//
// The result is recomputed from scratch; neither input is modified.
func Aggregate(positions []core.Position, quotes map[string]core.PriceQuote, n *currency.Normalizer) (*Metrics, error) {
	m := &Metrics{
		Positions: make([]PositionMetric, 0, len(positions)),
	}

	for _, pos := range positions {
		pm, err := valuePosition(pos, quotes, n)
		if err != nil {
			return nil, err
		}
		m.TotalInvested += pm.Invested
		m.TotalValue += pm.CurrentValue
		m.Positions = append(m.Positions, pm)
	}

	m.TotalPnL = m.TotalValue - m.TotalInvested
	m.TotalPnLPercent = percentOf(m.TotalPnL, m.TotalInvested)

	// Allocation needs the final total, hence the second pass
	for i := range m.Positions {
		m.Positions[i].AllocationPercent = percentOf(m.Positions[i].CurrentValue, m.TotalValue)
	}

	return m, nil
}

func valuePosition(pos core.Position, quotes map[string]core.PriceQuote, n *currency.Normalizer) (PositionMetric, error) {
	if err := pos.Validate(); err != nil {
		return PositionMetric{}, err
	}

	purchaseUSD, cur, err := n.TickerToCommon(pos.Ticker, pos.PurchasePrice)
	if err != nil {
		return PositionMetric{}, fmt.Errorf("valuing %s: %w", pos.Ticker, err)
	}

	pm := PositionMetric{
		ID:               pos.ID,
		Ticker:           pos.Ticker,
		Currency:         cur,
		Quantity:         pos.Quantity,
		PurchaseDate:     pos.PurchaseDate,
		PurchasePrice:    pos.PurchasePrice,
		PurchasePriceUSD: purchaseUSD,
	}

	if q, ok := quotes[pos.Ticker]; ok && q.IsValid() {
		pm.CurrentPrice = q.Price
		pm.CurrentPriceUSD = q.PriceUSD
	} else {
		pm.CurrentPrice = pos.PurchasePrice
		pm.CurrentPriceUSD = purchaseUSD
		pm.Stale = true
	}

	pm.Invested = pos.Quantity * pm.PurchasePriceUSD
	pm.CurrentValue = pos.Quantity * pm.CurrentPriceUSD
	pm.PnL = pm.CurrentValue - pm.Invested
	pm.PnLPercent = percentOf(pm.PnL, pm.Invested)

	return pm, nil
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole float64) float64 {
	if whole > 0 {
		return part / whole * 100
	}
	return 0
}
