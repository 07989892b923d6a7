// Package report renders valuations and indicator summaries for terminals.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/indicator"
	"github.com/newthinker/folio/internal/portfolio"
	"github.com/newthinker/folio/internal/signal"
)

// Money formats amount in cur, e.g. $1,234.56 for USD or R$1.234,56 for BRL.
// The amount is rounded half away from zero to the currency's minor unit.
func Money(amount float64, cur core.Currency) string {
	m := money.New(0, string(cur))
	fraction := int32(m.Currency().Fraction)
	minor := decimal.NewFromFloat(amount).Shift(fraction).Round(0).IntPart()
	return money.New(minor, string(cur)).Display()
}

// USD formats amount in the base currency
func USD(amount float64) string {
	return Money(amount, core.BaseCurrency)
}

// SignedUSD is USD with an explicit + for gains
func SignedUSD(amount float64) string {
	s := USD(amount)
	if amount > 0 && s != USD(0) {
		return "+" + s
	}
	return s
}

// Percent formats a percentage with 2 decimals
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Allocation formats an allocation share with 1 decimal
func Allocation(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Portfolio writes a position table followed by the totals.
func Portfolio(w io.Writer, m *portfolio.Metrics) error {
	if len(m.Positions) == 0 {
		_, err := fmt.Fprintln(w, "No positions.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tQTY\tPURCHASE\tCURRENT\tINVESTED\tVALUE\tP&L\tP&L %\tALLOC\t")
	fmt.Fprintln(tw, "------\t---\t--------\t-------\t--------\t-----\t---\t-----\t-----\t")

	for _, p := range m.Positions {
		ticker := p.Ticker
		if p.Stale {
			ticker += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			ticker,
			decimal.NewFromFloat(p.Quantity).String(),
			Money(p.PurchasePrice, p.Currency),
			Money(p.CurrentPrice, p.Currency),
			USD(p.Invested),
			USD(p.CurrentValue),
			SignedUSD(p.PnL),
			Percent(p.PnLPercent),
			Allocation(p.AllocationPercent),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total invested:  %s\n", USD(m.TotalInvested))
	fmt.Fprintf(w, "Total value:     %s\n", USD(m.TotalValue))
	fmt.Fprintf(w, "Total P&L:       %s (%s)\n", SignedUSD(m.TotalPnL), Percent(m.TotalPnLPercent))

	if stale := m.StaleTickers(); len(stale) > 0 {
		fmt.Fprintf(w, "\n* no quote, valued at purchase price: %s\n", strings.Join(stale, ", "))
	}
	return nil
}

// Analysis writes the latest indicator values and their readings.
func Analysis(w io.Writer, set *indicator.Set, summary signal.Summary, cur core.Currency) error {
	fmt.Fprintf(w, "%s  %d bars", set.Ticker, set.Bars)
	if !set.AsOf.IsZero() {
		fmt.Fprintf(w, " to %s", set.AsOf.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
	if set.Price.Valid {
		fmt.Fprintf(w, "Price: %s\n", Money(set.Price.Float64, cur))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDICATOR\tVALUE\tSIGNAL\tREADING\t")
	fmt.Fprintln(tw, "---------\t-----\t------\t-------\t")

	p := set.Params
	rows := []struct {
		name  string
		value string
		r     signal.Reading
	}{
		{fmt.Sprintf("RSI(%d)", p.RSIPeriod), value(set.RSI), summary.RSI},
		{fmt.Sprintf("MACD(%d,%d,%d)", p.MACDFast, p.MACDSlow, p.MACDSignal),
			value(set.MACD.Line) + " / " + value(set.MACD.Signal), summary.MACD},
		{fmt.Sprintf("SMA(%d/%d)", p.SMAShort, p.SMALong),
			value(set.SMAShort) + " / " + value(set.SMALong), summary.SMA},
		{fmt.Sprintf("Bollinger(%d,%g)", p.BollingerPeriod, p.BollingerK),
			value(set.Bollinger.Upper) + " / " + value(set.Bollinger.Lower), summary.Bollinger},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", row.name, row.value, row.r.Signal, row.r.Description)
	}
	return tw.Flush()
}

func value(v indicator.Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}
