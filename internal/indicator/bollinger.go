package indicator

import "gonum.org/v1/gonum/stat"

// BandsSeries holds Bollinger Band lines
type BandsSeries struct {
	Upper  Series `json:"upper"`
	Middle Series `json:"middle"`
	Lower  Series `json:"lower"`
}

// Bollinger calculates Bollinger Bands: middle = SMA(period),
// upper/lower = middle +/- k * stddev. The standard deviation is the sample
// (N-1) deviation of the same window, so period must be at least 2.
func Bollinger(prices []float64, period int, k float64) BandsSeries {
	out := BandsSeries{
		Upper:  undefinedSeries(len(prices)),
		Middle: SMA(prices, period),
		Lower:  undefinedSeries(len(prices)),
	}
	if period < 2 || len(prices) < period {
		out.Middle = undefinedSeries(len(prices))
		return out
	}

	for i := period - 1; i < len(prices); i++ {
		mid := out.Middle[i].Float64
		sd := stat.StdDev(prices[i-period+1:i+1], nil)
		out.Upper[i] = Defined(mid + k*sd)
		out.Lower[i] = Defined(mid - k*sd)
	}
	return out
}
