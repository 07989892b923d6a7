// Package currency normalizes prices from a ticker's native currency to the
// base accounting currency.
package currency

import (
	"strings"

	"github.com/newthinker/folio/internal/core"
)

// suffixes maps exchange suffixes to the currency the exchange quotes in.
// Tickers without a listed suffix (US stocks, ADRs such as MELI) are USD.
var suffixes = []struct {
	suffix   string
	currency core.Currency
}{
	{".BA", core.ARS}, // Buenos Aires
	{".SA", core.BRL}, // B3 Sao Paulo
	{".MX", core.MXN}, // BMV Mexico
}

// Detect returns the currency a ticker is quoted in. Matching is
// case-insensitive and never fails: unknown suffixes are USD.
func Detect(ticker string) core.Currency {
	upper := strings.ToUpper(strings.TrimSpace(ticker))
	for _, s := range suffixes {
		if strings.HasSuffix(upper, s.suffix) {
			return s.currency
		}
	}
	return core.USD
}
