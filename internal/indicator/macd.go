package indicator

// MACDSeries holds the three MACD lines
type MACDSeries struct {
	Line      Series `json:"line"`
	Signal    Series `json:"signal"`
	Histogram Series `json:"histogram"`
}

// MACD calculates MACD = EMA(fast) - EMA(slow), its signal line
// EMA(signal) of MACD, and the histogram MACD - signal. All EMAs are seeded
// from the first observation, so every bar has a value.
func MACD(prices []float64, fast, slow, signal int) MACDSeries {
	out := MACDSeries{
		Line:      undefinedSeries(len(prices)),
		Signal:    undefinedSeries(len(prices)),
		Histogram: undefinedSeries(len(prices)),
	}
	if len(prices) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return out
	}

	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMA(line, signal)

	for i := range prices {
		out.Line[i] = Defined(line[i])
		out.Signal[i] = Defined(signalLine[i])
		out.Histogram[i] = Defined(line[i] - signalLine[i])
	}
	return out
}
