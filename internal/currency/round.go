package currency

import "github.com/shopspring/decimal"

// Round2 rounds a display value to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to places decimal places, half away from zero.
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
