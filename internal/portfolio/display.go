package portfolio

import "github.com/newthinker/folio/internal/currency"

// Rounded returns a copy with every monetary and percent field rounded to
// 2 decimals for display. Quantities are left as is.
func (m *Metrics) Rounded() *Metrics {
	out := &Metrics{
		TotalInvested:   currency.Round2(m.TotalInvested),
		TotalValue:      currency.Round2(m.TotalValue),
		TotalPnL:        currency.Round2(m.TotalPnL),
		TotalPnLPercent: currency.Round2(m.TotalPnLPercent),
		Positions:       make([]PositionMetric, len(m.Positions)),
	}
	for i, p := range m.Positions {
		p.PurchasePrice = currency.Round2(p.PurchasePrice)
		p.PurchasePriceUSD = currency.Round2(p.PurchasePriceUSD)
		p.CurrentPrice = currency.Round2(p.CurrentPrice)
		p.CurrentPriceUSD = currency.Round2(p.CurrentPriceUSD)
		p.Invested = currency.Round2(p.Invested)
		p.CurrentValue = currency.Round2(p.CurrentValue)
		p.PnL = currency.Round2(p.PnL)
		p.PnLPercent = currency.Round2(p.PnLPercent)
		p.AllocationPercent = currency.Round2(p.AllocationPercent)
		out.Positions[i] = p
	}
	return out
}
