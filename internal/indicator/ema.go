package indicator

// EMA calculates the Exponential Moving Average with smoothing
// alpha = 2/(span+1), seeded from the first observation:
//
//	ema[0] = prices[0]
//	ema[t] = alpha*prices[t] + (1-alpha)*ema[t-1]
//
// Every bar has a value, so the result is a plain slice.
func EMA(prices []float64, span int) []float64 {
	if len(prices) == 0 || span <= 0 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	alpha := 2.0 / float64(span+1)

	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		result[i] = ema
	}

	return result
}
