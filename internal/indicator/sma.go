package indicator

import "github.com/markcheno/go-talib"

// SMA calculates the Simple Moving Average over period bars.
// The first period-1 values are undefined.
func SMA(prices []float64, period int) Series {
	result := undefinedSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	sma := talib.Sma(prices, period)
	for i := period - 1; i < len(prices); i++ {
		result[i] = Defined(sma[i])
	}
	return result
}
