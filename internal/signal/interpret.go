// Package signal turns the latest indicator values into qualitative readings.
package signal

import (
	"fmt"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/indicator"
)

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0

	bandUpperZone = 0.9
	bandLowerZone = 0.1
	bandMidpoint  = 0.5
)

// Indicator names used in readings
const (
	NameRSI       = "rsi"
	NameMACD      = "macd"
	NameSMA       = "sma"
	NameBollinger = "bollinger"
)

// InsufficientData is the description of a reading whose inputs are undefined
const InsufficientData = "insufficient data"

// Reading is the interpretation of one indicator
type Reading struct {
	Indicator   string      `json:"indicator"`
	Signal      core.Signal `json:"signal"`
	Description string      `json:"description"`
	// Sufficient is false when the inputs lacked history
	Sufficient bool `json:"sufficient"`
}

func insufficient(name string) Reading {
	return Reading{Indicator: name, Signal: core.SignalNeutral, Description: InsufficientData}
}

func reading(name string, s core.Signal, desc string) Reading {
	return Reading{Indicator: name, Signal: s, Description: desc, Sufficient: true}
}

// RSI reads >= 70 as overbought and <= 30 as oversold.
func RSI(v indicator.Value) Reading {
	if !v.Valid {
		return insufficient(NameRSI)
	}
	switch {
	case v.Float64 >= rsiOverbought:
		return reading(NameRSI, core.SignalOverbought, fmt.Sprintf("RSI %.2f: possible overbought, consider selling", v.Float64))
	case v.Float64 <= rsiOversold:
		return reading(NameRSI, core.SignalOversold, fmt.Sprintf("RSI %.2f: possible oversold, consider buying", v.Float64))
	default:
		return reading(NameRSI, core.SignalNeutral, fmt.Sprintf("RSI %.2f: neutral range", v.Float64))
	}
}

// MACD is bullish when the line is above its signal line. A tie is bearish.
func MACD(line, sig indicator.Value) Reading {
	if !line.Valid || !sig.Valid {
		return insufficient(NameMACD)
	}
	if line.Float64 > sig.Float64 {
		return reading(NameMACD, core.SignalBullish, fmt.Sprintf("MACD %.2f above signal %.2f: bullish trend", line.Float64, sig.Float64))
	}
	return reading(NameMACD, core.SignalBearish, fmt.Sprintf("MACD %.2f at or below signal %.2f: bearish trend", line.Float64, sig.Float64))
}

// SMA classifies the price against the short and long moving averages.
// Short above long with the price above short is a golden cross regime;
// the mirror image is a death cross regime.
func SMA(price, short, long indicator.Value) Reading {
	if !price.Valid || !short.Valid || !long.Valid {
		return insufficient(NameSMA)
	}
	p, s, l := price.Float64, short.Float64, long.Float64
	switch {
	case s > l && p > s:
		return reading(NameSMA, core.SignalStronglyBullish, "golden cross: strong uptrend")
	case s < l && p < s:
		return reading(NameSMA, core.SignalStronglyBearish, "death cross: strong downtrend")
	case p > s:
		return reading(NameSMA, core.SignalBullish, fmt.Sprintf("price above short SMA %.2f", s))
	default:
		return reading(NameSMA, core.SignalBearish, fmt.Sprintf("price at or below short SMA %.2f", s))
	}
}

// BandPosition returns where price sits between lower (0) and upper (1),
// clamped to [0,1]. A collapsed band returns 0.5.
func BandPosition(price, upper, lower float64) float64 {
	width := upper - lower
	if !(width > 0) {
		return bandMidpoint
	}
	pos := (price - lower) / width
	switch {
	case pos < 0:
		return 0
	case pos > 1:
		return 1
	}
	return pos
}

// Bollinger reads the band position: >= 0.9 overbought, <= 0.1 oversold,
// above the midpoint bullish, otherwise bearish.
func Bollinger(price, upper, middle, lower indicator.Value) Reading {
	if !price.Valid || !upper.Valid || !middle.Valid || !lower.Valid {
		return insufficient(NameBollinger)
	}
	pos := BandPosition(price.Float64, upper.Float64, lower.Float64)
	switch {
	case pos >= bandUpperZone:
		return reading(NameBollinger, core.SignalOverbought, "near upper band: possible overbought")
	case pos <= bandLowerZone:
		return reading(NameBollinger, core.SignalOversold, "near lower band: possible oversold")
	case pos > bandMidpoint:
		return reading(NameBollinger, core.SignalBullish, "above the middle band")
	default:
		return reading(NameBollinger, core.SignalBearish, "at or below the middle band")
	}
}

// Summary holds every reading for one ticker
type Summary struct {
	Ticker    string  `json:"ticker"`
	RSI       Reading `json:"rsi"`
	MACD      Reading `json:"macd"`
	SMA       Reading `json:"sma"`
	Bollinger Reading `json:"bollinger"`
}

// Readings returns the readings in display order
func (s Summary) Readings() []Reading {
	return []Reading{s.RSI, s.MACD, s.SMA, s.Bollinger}
}

// Interpret reads the full-precision latest values of set.
func Interpret(set *indicator.Set) Summary {
	if set == nil {
		return Summary{
			RSI:       insufficient(NameRSI),
			MACD:      insufficient(NameMACD),
			SMA:       insufficient(NameSMA),
			Bollinger: insufficient(NameBollinger),
		}
	}
	v := set.Exact()
	return Summary{
		Ticker:    set.Ticker,
		RSI:       RSI(v.RSI),
		MACD:      MACD(v.MACD.Line, v.MACD.Signal),
		SMA:       SMA(v.Price, v.SMAShort, v.SMALong),
		Bollinger: Bollinger(v.Price, v.Bollinger.Upper, v.Bollinger.Middle, v.Bollinger.Lower),
	}
}
