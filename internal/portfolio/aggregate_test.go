package portfolio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPosition(t *testing.T, ticker string, qty, price float64) core.Position {
	t.Helper()
	p, err := core.NewPosition("", ticker, qty, price, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func usdQuote(ticker string, price float64) core.PriceQuote {
	return core.PriceQuote{Ticker: ticker, Price: price, Currency: core.USD, PriceUSD: price}
}

func ratesNormalizer(rates map[core.Currency]float64) *currency.Normalizer {
	return currency.NewNormalizer(func(cur core.Currency) (float64, error) {
		r, ok := rates[cur]
		if !ok {
			return 0, errors.New("no rate")
		}
		return r, nil
	}, currency.Options{})
}

func TestAggregate_SinglePositionUSD(t *testing.T) {
	positions := []core.Position{mustPosition(t, "AAPL", 10, 100)}
	quotes := map[string]core.PriceQuote{"AAPL": usdQuote("AAPL", 150)}

	m, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)
	require.Len(t, m.Positions, 1)

	p := m.Positions[0]
	assert.Equal(t, 1000.0, p.Invested)
	assert.Equal(t, 1500.0, p.CurrentValue)
	assert.Equal(t, 500.0, p.PnL)
	assert.Equal(t, 50.0, p.PnLPercent)
	assert.Equal(t, 100.0, p.AllocationPercent)
	assert.False(t, p.Stale)

	assert.Equal(t, 1000.0, m.TotalInvested)
	assert.Equal(t, 1500.0, m.TotalValue)
	assert.Equal(t, 500.0, m.TotalPnL)
	assert.Equal(t, 50.0, m.TotalPnLPercent)
}

func TestAggregate_MissingQuoteFallsBackToPurchasePrice(t *testing.T) {
	positions := []core.Position{mustPosition(t, "YPFD.BA", 5, 1000)}

	m, err := Aggregate(positions, nil, ratesNormalizer(map[core.Currency]float64{core.ARS: 1000}))
	require.NoError(t, err)
	require.Len(t, m.Positions, 1)

	p := m.Positions[0]
	assert.Equal(t, core.ARS, p.Currency)
	assert.Equal(t, 1.0, p.PurchasePriceUSD)
	assert.Equal(t, 5.0, p.Invested)
	assert.Equal(t, 5.0, p.CurrentValue)
	assert.Equal(t, 0.0, p.PnL)
	assert.Equal(t, 0.0, p.PnLPercent)
	assert.Equal(t, 1000.0, p.CurrentPrice)
	assert.True(t, p.Stale)
	assert.Equal(t, []string{"YPFD.BA"}, m.StaleTickers())
}

func TestAggregate_InvalidQuoteTreatedAsMissing(t *testing.T) {
	positions := []core.Position{mustPosition(t, "AAPL", 2, 100)}
	quotes := map[string]core.PriceQuote{"AAPL": {Ticker: "AAPL"}}

	m, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)
	assert.True(t, m.Positions[0].Stale)
	assert.Equal(t, 200.0, m.Positions[0].CurrentValue)
}

func TestAggregate_SubCentUSDQuote(t *testing.T) {
	positions := []core.Position{mustPosition(t, "CHEAP.BA", 1000, 8)}
	quotes := map[string]core.PriceQuote{
		"CHEAP.BA": {Ticker: "CHEAP.BA", Price: 4, Currency: core.ARS, PriceUSD: 0.004},
	}

	m, err := Aggregate(positions, quotes, ratesNormalizer(map[core.Currency]float64{core.ARS: 1000}))
	require.NoError(t, err)

	p := m.Positions[0]
	assert.False(t, p.Stale)
	assert.InDelta(t, 8.0, p.Invested, 1e-9)
	assert.InDelta(t, 4.0, p.CurrentValue, 1e-9)
	assert.InDelta(t, -50.0, p.PnLPercent, 1e-9)
}

func TestAggregate_MixedCurrencies(t *testing.T) {
	positions := []core.Position{
		mustPosition(t, "AAPL", 10, 100),
		mustPosition(t, "GGAL.BA", 100, 2000),
		mustPosition(t, "PETR4.SA", 50, 30),
	}
	quotes := map[string]core.PriceQuote{
		"AAPL":     usdQuote("AAPL", 120),
		"GGAL.BA":  {Ticker: "GGAL.BA", Price: 3000, Currency: core.ARS, PriceUSD: 3},
		"PETR4.SA": {Ticker: "PETR4.SA", Price: 25, Currency: core.BRL, PriceUSD: 5},
	}
	n := ratesNormalizer(map[core.Currency]float64{core.ARS: 1000, core.BRL: 5})

	m, err := Aggregate(positions, quotes, n)
	require.NoError(t, err)
	require.Len(t, m.Positions, 3)

	// order follows input
	assert.Equal(t, "AAPL", m.Positions[0].Ticker)
	assert.Equal(t, "GGAL.BA", m.Positions[1].Ticker)
	assert.Equal(t, "PETR4.SA", m.Positions[2].Ticker)

	assert.Equal(t, 200.0, m.Positions[1].Invested)
	assert.Equal(t, 300.0, m.Positions[1].CurrentValue)
	assert.Equal(t, 300.0, m.Positions[2].Invested)
	assert.Equal(t, 250.0, m.Positions[2].CurrentValue)

	assert.Equal(t, 1500.0, m.TotalInvested)
	assert.Equal(t, 1750.0, m.TotalValue)
	assert.Equal(t, 250.0, m.TotalPnL)

	var sum float64
	for _, p := range m.Positions {
		sum += p.AllocationPercent
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestAggregate_Invariants(t *testing.T) {
	positions := []core.Position{
		mustPosition(t, "A", 3.3, 17.17),
		mustPosition(t, "B", 0.123, 9999.99),
		mustPosition(t, "C.MX", 41, 233.1),
		mustPosition(t, "D", 7, 0.07),
		mustPosition(t, "E.BA", 12, 1234.5),
	}
	quotes := map[string]core.PriceQuote{
		"A":    usdQuote("A", 11.01),
		"B":    usdQuote("B", 10400.5),
		"C.MX": {Ticker: "C.MX", Price: 250, Currency: core.MXN, PriceUSD: 250.0 / 17},
		"D":    usdQuote("D", 0.33),
	}
	n := currency.NewNormalizer(nil, currency.Options{Fallbacks: currency.DefaultFallbacks()})

	m, err := Aggregate(positions, quotes, n)
	require.NoError(t, err)

	var sum float64
	for _, p := range m.Positions {
		assert.Equal(t, p.CurrentValue-p.Invested, p.PnL, "pnl for %s must be exact", p.Ticker)
		sum += p.AllocationPercent
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
	assert.Equal(t, m.TotalValue-m.TotalInvested, m.TotalPnL)
}

func TestAggregate_Empty(t *testing.T) {
	m, err := Aggregate(nil, nil, ratesNormalizer(nil))
	require.NoError(t, err)
	assert.NotNil(t, m.Positions)
	assert.Empty(t, m.Positions)
	assert.Zero(t, m.TotalInvested)
	assert.Zero(t, m.TotalValue)
	assert.Zero(t, m.TotalPnL)
	assert.Zero(t, m.TotalPnLPercent)
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 0.0, percentOf(10, 0))
	assert.Equal(t, 0.0, percentOf(-10, 0))
	assert.Equal(t, 50.0, percentOf(5, 10))
}

func TestAggregate_ConversionErrorSurfaces(t *testing.T) {
	positions := []core.Position{mustPosition(t, "YPFD.BA", 5, 1000)}
	n := currency.NewNormalizer(nil, currency.Options{})

	m, err := Aggregate(positions, nil, n)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, core.ErrConversion))
}

func TestAggregate_RejectsInvalidPosition(t *testing.T) {
	positions := []core.Position{{Ticker: "AAPL", Quantity: -1, PurchasePrice: 10}}

	_, err := Aggregate(positions, nil, ratesNormalizer(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidPosition))
}

func TestAggregate_DoesNotMutateInputs(t *testing.T) {
	positions := []core.Position{mustPosition(t, "AAPL", 10, 100)}
	quotes := map[string]core.PriceQuote{"AAPL": usdQuote("AAPL", 150)}
	origPos := positions[0]
	origQuote := quotes["AAPL"]

	_, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)

	assert.Equal(t, origPos, positions[0])
	assert.Equal(t, origQuote, quotes["AAPL"])
	assert.Len(t, quotes, 1)
}

func TestAggregate_Deterministic(t *testing.T) {
	positions := []core.Position{
		mustPosition(t, "AAPL", 10, 100),
		mustPosition(t, "MSFT", 3, 310.55),
	}
	quotes := map[string]core.PriceQuote{
		"AAPL": usdQuote("AAPL", 150),
		"MSFT": usdQuote("MSFT", 402.12),
	}

	a, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)
	b, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMetrics_Rounded(t *testing.T) {
	positions := []core.Position{mustPosition(t, "X", 3, 1.0/3)}
	quotes := map[string]core.PriceQuote{"X": usdQuote("X", 2.0/3)}

	m, err := Aggregate(positions, quotes, ratesNormalizer(nil))
	require.NoError(t, err)

	r := m.Rounded()
	assert.Equal(t, 0.33, r.Positions[0].PurchasePriceUSD)
	assert.Equal(t, 0.67, r.Positions[0].CurrentPriceUSD)
	assert.Equal(t, 100.0, r.Positions[0].PnLPercent)
	assert.Equal(t, 3.0, r.Positions[0].Quantity)
	assert.False(t, math.IsNaN(r.TotalPnLPercent))

	// the original is untouched
	assert.Equal(t, 1.0/3, m.Positions[0].PurchasePriceUSD)
}
