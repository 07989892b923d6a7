// Package indicator computes technical indicators over a close-price series.
//
// Every series has one Value per input bar. Bars before an indicator's
// window is complete hold an undefined Value, which is distinct from zero.
package indicator

import (
	"encoding/json"

	"github.com/newthinker/folio/internal/currency"
)

// Value is an indicator reading that may be undefined because of
// insufficient history.
type Value struct {
	Float64 float64
	Valid   bool
}

// Defined wraps v as a valid Value
func Defined(v float64) Value {
	return Value{Float64: v, Valid: true}
}

// Undefined is the reading for bars without enough history
var Undefined = Value{}

// Rounded returns v rounded to 2 decimals. Undefined stays undefined.
func (v Value) Rounded() Value {
	if !v.Valid {
		return v
	}
	return Defined(currency.Round2(v.Float64))
}

// MarshalJSON encodes an undefined value as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

// UnmarshalJSON decodes null as undefined
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Series is one Value per input bar, oldest first
type Series []Value

// Last returns the newest value, or Undefined for an empty series.
func (s Series) Last() Value {
	if len(s) == 0 {
		return Undefined
	}
	return s[len(s)-1]
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.Valid {
			return i
		}
	}
	return -1
}

func undefinedSeries(n int) Series {
	return make(Series, n)
}
