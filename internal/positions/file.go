// Package positions reads position lists from YAML files.
package positions

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newthinker/folio/internal/core"
)

// dateLayouts are the accepted purchase_date formats
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Entry is a position as written in files and request bodies
type Entry struct {
	ID            string  `yaml:"id" json:"id"`
	Ticker        string  `yaml:"ticker" json:"ticker"`
	Quantity      float64 `yaml:"quantity" json:"quantity"`
	PurchasePrice float64 `yaml:"purchase_price" json:"purchase_price"`
	PurchaseDate  string  `yaml:"purchase_date" json:"purchase_date"`
}

// Position validates e and converts it. Tickers are upper-cased.
func (e Entry) Position() (core.Position, error) {
	date, err := parseDate(e.PurchaseDate)
	if err != nil {
		return core.Position{}, core.WrapError(core.ErrInvalidPosition, fmt.Errorf("%s: %w", e.Ticker, err))
	}
	return core.NewPosition(e.ID, strings.ToUpper(strings.TrimSpace(e.Ticker)), e.Quantity, e.PurchasePrice, date)
}

// Convert validates every entry; the first invalid entry aborts.
func Convert(entries []Entry) ([]core.Position, error) {
	out := make([]core.Position, 0, len(entries))
	for i, e := range entries {
		p, err := e.Position()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

type file struct {
	Positions []Entry `yaml:"positions"`
}

// Load reads positions from a YAML file
func Load(path string) ([]core.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening positions file: %w", err)
	}
	defer f.Close()

	positions, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return positions, nil
}

// Decode parses a positions document:
//
//	positions:
//	  - ticker: AAPL
//	    quantity: 10
//	    purchase_price: 150.25
//	    purchase_date: 2024-01-15
//
// Every entry is validated; the first invalid entry aborts decoding.
func Decode(r io.Reader) ([]core.Position, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return []core.Position{}, nil
		}
		return nil, fmt.Errorf("parsing positions: %w", err)
	}

	return Convert(doc.Positions)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid purchase_date %q", s)
}
