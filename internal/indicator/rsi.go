package indicator

import "gonum.org/v1/gonum/stat"

// RSI calculates the Relative Strength Index using simple rolling means of
// gains and losses over period price changes.
//
// A value needs period changes, i.e. period+1 bars, so the first defined
// index is period. A window with no losses reads 100; a window with neither
// gains nor losses reads 50.
func RSI(prices []float64, period int) Series {
	result := undefinedSeries(len(prices))
	if period <= 0 || len(prices) < period+1 {
		return result
	}

	// gains[i], losses[i] describe the change from bar i-1 to bar i
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}

	for i := period; i < len(prices); i++ {
		avgGain := stat.Mean(gains[i-period+1:i+1], nil)
		avgLoss := stat.Mean(losses[i-period+1:i+1], nil)
		result[i] = Defined(rsiFromAverages(avgGain, avgLoss))
	}

	return result
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
