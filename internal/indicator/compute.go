package indicator

import (
	"fmt"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// Params holds indicator periods
type Params struct {
	RSIPeriod       int     `json:"rsi_period" mapstructure:"rsi_period"`
	MACDFast        int     `json:"macd_fast" mapstructure:"macd_fast"`
	MACDSlow        int     `json:"macd_slow" mapstructure:"macd_slow"`
	MACDSignal      int     `json:"macd_signal" mapstructure:"macd_signal"`
	SMAShort        int     `json:"sma_short" mapstructure:"sma_short"`
	SMALong         int     `json:"sma_long" mapstructure:"sma_long"`
	BollingerPeriod int     `json:"bollinger_period" mapstructure:"bollinger_period"`
	BollingerK      float64 `json:"bollinger_k" mapstructure:"bollinger_k"`
}

// DefaultParams returns the standard settings: RSI 14, MACD 12/26/9,
// SMA 50/200 and Bollinger 20/2.
func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		SMAShort:        50,
		SMALong:         200,
		BollingerPeriod: 20,
		BollingerK:      2,
	}
}

// Validate checks the periods are usable
func (p Params) Validate() error {
	switch {
	case p.RSIPeriod < 1:
		return fmt.Errorf("rsi_period must be positive, got %d", p.RSIPeriod)
	case p.MACDFast < 1 || p.MACDSlow < 1 || p.MACDSignal < 1:
		return fmt.Errorf("macd spans must be positive, got %d/%d/%d", p.MACDFast, p.MACDSlow, p.MACDSignal)
	case p.MACDFast >= p.MACDSlow:
		return fmt.Errorf("macd_fast (%d) must be shorter than macd_slow (%d)", p.MACDFast, p.MACDSlow)
	case p.SMAShort < 1 || p.SMALong < 1:
		return fmt.Errorf("sma periods must be positive, got %d/%d", p.SMAShort, p.SMALong)
	case p.SMAShort >= p.SMALong:
		return fmt.Errorf("sma_short (%d) must be shorter than sma_long (%d)", p.SMAShort, p.SMALong)
	case p.BollingerPeriod < 2:
		return fmt.Errorf("bollinger_period must be at least 2, got %d", p.BollingerPeriod)
	case !(p.BollingerK > 0):
		return fmt.Errorf("bollinger_k must be positive, got %v", p.BollingerK)
	}
	return nil
}

// MACDValue is the latest MACD triple
type MACDValue struct {
	Line      Value `json:"line"`
	Signal    Value `json:"signal"`
	Histogram Value `json:"histogram"`
}

// BandsValue is the latest Bollinger triple
type BandsValue struct {
	Upper  Value `json:"upper"`
	Middle Value `json:"middle"`
	Lower  Value `json:"lower"`
}

// SeriesSet holds the full per-bar series for charting
type SeriesSet struct {
	Close     []float64   `json:"close"`
	Time      []time.Time `json:"time"`
	RSI       Series      `json:"rsi"`
	MACD      MACDSeries  `json:"macd"`
	SMAShort  Series      `json:"sma_short"`
	SMALong   Series      `json:"sma_long"`
	Bollinger BandsSeries `json:"bollinger"`
}

// Latest holds the newest value of every indicator
type Latest struct {
	Price     Value
	RSI       Value
	MACD      MACDValue
	SMAShort  Value
	SMALong   Value
	Bollinger BandsValue
}

// Rounded returns l with every value rounded to 2 decimals
func (l Latest) Rounded() Latest {
	return Latest{
		Price: l.Price.Rounded(),
		RSI:   l.RSI.Rounded(),
		MACD: MACDValue{
			Line:      l.MACD.Line.Rounded(),
			Signal:    l.MACD.Signal.Rounded(),
			Histogram: l.MACD.Histogram.Rounded(),
		},
		SMAShort: l.SMAShort.Rounded(),
		SMALong:  l.SMALong.Rounded(),
		Bollinger: BandsValue{
			Upper:  l.Bollinger.Upper.Rounded(),
			Middle: l.Bollinger.Middle.Rounded(),
			Lower:  l.Bollinger.Lower.Rounded(),
		},
	}
}

// Set is the result of Compute. Latest values are rounded to 2 decimals
// for display; Exact and the series keep full precision.
type Set struct {
	Ticker string    `json:"ticker"`
	Bars   int       `json:"bars"`
	AsOf   time.Time `json:"as_of"`
	Params Params    `json:"params"`

	Price     Value      `json:"price"`
	RSI       Value      `json:"rsi"`
	MACD      MACDValue  `json:"macd"`
	SMAShort  Value      `json:"sma_short"`
	SMALong   Value      `json:"sma_long"`
	Bollinger BandsValue `json:"bollinger"`

	// Series is nil once dropped with WithoutSeries
	Series *SeriesSet `json:"series,omitempty"`

	exact *Latest
}

// Exact returns the unrounded latest values. A Set not built by Compute,
// such as one decoded from JSON, only has its rounded values.
func (s *Set) Exact() Latest {
	if s.exact != nil {
		return *s.exact
	}
	return Latest{
		Price:     s.Price,
		RSI:       s.RSI,
		MACD:      s.MACD,
		SMAShort:  s.SMAShort,
		SMALong:   s.SMALong,
		Bollinger: s.Bollinger,
	}
}

// WithoutSeries returns a shallow copy holding only the latest values
func (s *Set) WithoutSeries() *Set {
	out := *s
	out.Series = nil
	return &out
}

// Undefined lists the indicators that lack enough history for a latest value.
func (s *Set) Undefined() []string {
	var names []string
	if !s.RSI.Valid {
		names = append(names, fmt.Sprintf("rsi(%d)", s.Params.RSIPeriod))
	}
	if !s.MACD.Line.Valid {
		names = append(names, "macd")
	}
	if !s.SMAShort.Valid {
		names = append(names, fmt.Sprintf("sma(%d)", s.Params.SMAShort))
	}
	if !s.SMALong.Valid {
		names = append(names, fmt.Sprintf("sma(%d)", s.Params.SMALong))
	}
	if !s.Bollinger.Middle.Valid {
		names = append(names, fmt.Sprintf("bollinger(%d)", s.Params.BollingerPeriod))
	}
	return names
}

// Compute calculates every indicator over the close column of series.
// An empty series returns core.ErrNoData; short series return a Set whose
// affected values are undefined.
func Compute(series core.PriceSeries, p Params) (*Set, error) {
	last, ok := series.Last()
	if !ok {
		return nil, core.ErrNoData
	}
	if err := p.Validate(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	closes := series.Closes()
	times := make([]time.Time, len(series))
	for i, bar := range series {
		times[i] = bar.Time
	}

	ss := SeriesSet{
		Close:     closes,
		Time:      times,
		RSI:       RSI(closes, p.RSIPeriod),
		MACD:      MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		SMAShort:  SMA(closes, p.SMAShort),
		SMALong:   SMA(closes, p.SMALong),
		Bollinger: Bollinger(closes, p.BollingerPeriod, p.BollingerK),
	}

	exact := Latest{
		Price: Defined(last.Close),
		RSI:   ss.RSI.Last(),
		MACD: MACDValue{
			Line:      ss.MACD.Line.Last(),
			Signal:    ss.MACD.Signal.Last(),
			Histogram: ss.MACD.Histogram.Last(),
		},
		SMAShort: ss.SMAShort.Last(),
		SMALong:  ss.SMALong.Last(),
		Bollinger: BandsValue{
			Upper:  ss.Bollinger.Upper.Last(),
			Middle: ss.Bollinger.Middle.Last(),
			Lower:  ss.Bollinger.Lower.Last(),
		},
	}
	shown := exact.Rounded()

	return &Set{
		Ticker:    last.Symbol,
		Bars:      len(series),
		AsOf:      last.Time,
		Params:    p,
		Price:     shown.Price,
		RSI:       shown.RSI,
		MACD:      shown.MACD,
		SMAShort:  shown.SMAShort,
		SMALong:   shown.SMALong,
		Bollinger: shown.Bollinger,
		Series:    &ss,
		exact:     &exact,
	}, nil
}
