package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
)

// Currency is an ISO-4217 code from the closed set the engine understands
type Currency string

const (
	USD Currency = money.USD
	ARS Currency = money.ARS
	BRL Currency = money.BRL
	MXN Currency = money.MXN
)

// BaseCurrency is the accounting currency every valuation is normalized to
const BaseCurrency = USD

// SupportedCurrencies lists every currency a ticker can map to
var SupportedCurrencies = []Currency{USD, ARS, BRL, MXN}

// ParseCurrency normalizes a currency code and checks it against ISO-4217.
// It does not restrict the result to SupportedCurrencies.
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" || money.GetCurrency(c) == nil {
		return "", fmt.Errorf("unknown currency code %q", code)
	}
	return Currency(c), nil
}

// IsSupported reports whether c is one of SupportedCurrencies
func (c Currency) IsSupported() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Position is a holding recorded by the user. Positions are immutable
// inputs to valuation; build them with NewPosition.
type Position struct {
	ID            string    `json:"id" yaml:"id"`
	Ticker        string    `json:"ticker" yaml:"ticker"`
	Quantity      float64   `json:"quantity" yaml:"quantity"`
	PurchasePrice float64   `json:"purchase_price" yaml:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date" yaml:"purchase_date"`
}

// NewPosition validates and builds a Position. An empty id gets a random UUID.
func NewPosition(id, ticker string, quantity, purchasePrice float64, purchaseDate time.Time) (Position, error) {
	p := Position{
		ID:            id,
		Ticker:        strings.TrimSpace(ticker),
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		PurchaseDate:  purchaseDate,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Validate checks the position invariants
func (p Position) Validate() error {
	if p.Ticker == "" {
		return WrapError(ErrInvalidPosition, fmt.Errorf("ticker is required"))
	}
	if !(p.Quantity > 0) {
		return WrapError(ErrInvalidPosition, fmt.Errorf("%s: quantity must be positive, got %v", p.Ticker, p.Quantity))
	}
	if !(p.PurchasePrice > 0) {
		return WrapError(ErrInvalidPosition, fmt.Errorf("%s: purchase price must be positive, got %v", p.Ticker, p.PurchasePrice))
	}
	return nil
}

// PriceQuote is a current price for a ticker, in its native currency and
// in the base currency.
type PriceQuote struct {
	Ticker   string    `json:"ticker"`
	Price    float64   `json:"price"`
	Currency Currency  `json:"currency"`
	PriceUSD float64   `json:"price_usd"`
	AsOf     time.Time `json:"as_of"`
	Source   string    `json:"source,omitempty"`
}

// IsValid checks if the quote has required fields
func (q PriceQuote) IsValid() bool {
	return q.Ticker != "" && q.Price > 0 && q.PriceUSD > 0
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"` // "1d", "1wk"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Time     time.Time `json:"time"`
}

// PriceSeries is an ordered oldest-to-newest sequence of bars for one ticker
type PriceSeries []OHLCV

// Closes extracts the close column
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// Last returns the newest bar. ok is false for an empty series.
func (s PriceSeries) Last() (bar OHLCV, ok bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

// Signal is a qualitative reading of an indicator
type Signal string

const (
	SignalOverbought      Signal = "overbought"
	SignalOversold        Signal = "oversold"
	SignalNeutral         Signal = "neutral"
	SignalBullish         Signal = "bullish"
	SignalBearish         Signal = "bearish"
	SignalStronglyBullish Signal = "strongly_bullish"
	SignalStronglyBearish Signal = "strongly_bearish"
)
