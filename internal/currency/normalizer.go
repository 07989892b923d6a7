package currency

import (
	"errors"
	"fmt"

	"github.com/newthinker/folio/internal/core"
	"go.uber.org/zap"
)

// RateLookup returns how many units of cur buy one unit of the base currency
// (e.g. ~1000 for ARS). Implementations may cache; the normalizer does not.
type RateLookup func(cur core.Currency) (float64, error)

// DefaultFallbacks are approximate divisors used when no live rate is
// available. They go stale quickly and should be overridden from config.
func DefaultFallbacks() map[core.Currency]float64 {
	return map[core.Currency]float64{
		core.ARS: 1000,
		core.BRL: 5,
		core.MXN: 17,
	}
}

// Options configures a Normalizer.
type Options struct {
	// Fallbacks are fixed divisors used when the lookup is missing or fails.
	Fallbacks map[core.Currency]float64
	Logger    *zap.Logger
	// OnFallback is called whenever a fallback divisor replaces a live rate.
	OnFallback func(cur core.Currency, rate float64, cause error)
	// OnError is called when neither a live nor a fallback rate exists.
	OnError func(cur core.Currency, err error)
}

// Normalizer converts amounts between a native currency and the base currency.
type Normalizer struct {
	lookup     RateLookup
	fallbacks  map[core.Currency]float64
	logger     *zap.Logger
	onFallback func(core.Currency, float64, error)
	onError    func(core.Currency, error)
}

// NewNormalizer creates a Normalizer. lookup may be nil, in which case only
// fallback divisors are used.
func NewNormalizer(lookup RateLookup, opts Options) *Normalizer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fallbacks := make(map[core.Currency]float64, len(opts.Fallbacks))
	for cur, rate := range opts.Fallbacks {
		fallbacks[cur] = rate
	}

	return &Normalizer{
		lookup:     lookup,
		fallbacks:  fallbacks,
		logger:     logger,
		onFallback: opts.OnFallback,
		onError:    opts.OnError,
	}
}

// Rate resolves the exchange rate for cur. The base currency is always 1.
// A missing or non-positive live rate falls back to the configured divisor;
// with no divisor the result is core.ErrConversion.
func (n *Normalizer) Rate(cur core.Currency) (float64, error) {
	if cur == core.BaseCurrency {
		return 1, nil
	}

	var cause error
	if n.lookup != nil {
		rate, err := n.lookup(cur)
		switch {
		case err != nil:
			cause = err
		case !(rate > 0):
			cause = fmt.Errorf("invalid rate %v", rate)
		default:
			return rate, nil
		}
	} else {
		cause = errors.New("no rate source")
	}

	if rate, ok := n.fallbacks[cur]; ok && rate > 0 {
		n.logger.Warn("using fallback exchange rate",
			zap.String("currency", cur.String()),
			zap.Float64("rate", rate),
			zap.Error(cause),
		)
		if n.onFallback != nil {
			n.onFallback(cur, rate, cause)
		}
		return rate, nil
	}

	err := core.WrapError(core.ErrConversion, fmt.Errorf("%s to %s: %w", cur, core.BaseCurrency, cause))
	if n.onError != nil {
		n.onError(cur, err)
	}
	return 0, err
}

// ToCommon converts amount from cur to the base currency.
func (n *Normalizer) ToCommon(amount float64, cur core.Currency) (float64, error) {
	if cur == core.BaseCurrency {
		return amount, nil
	}
	rate, err := n.Rate(cur)
	if err != nil {
		return 0, err
	}
	return amount / rate, nil
}

// FromCommon converts a base-currency amount back to cur.
func (n *Normalizer) FromCommon(amount float64, cur core.Currency) (float64, error) {
	if cur == core.BaseCurrency {
		return amount, nil
	}
	rate, err := n.Rate(cur)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// TickerToCommon detects the ticker's currency and converts amount.
func (n *Normalizer) TickerToCommon(ticker string, amount float64) (float64, core.Currency, error) {
	cur := Detect(ticker)
	usd, err := n.ToCommon(amount, cur)
	return usd, cur, err
}
