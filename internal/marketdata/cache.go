package marketdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
)

// Cache kinds reported to a CacheObserver
const (
	KindQuote   = "quote"
	KindHistory = "history"
	KindRate    = "rate"
)

// CacheObserver receives cache hit and miss events
type CacheObserver interface {
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
}

type nopObserver struct{}

func (nopObserver) RecordCacheHit(string)  {}
func (nopObserver) RecordCacheMiss(string) {}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// ttlCache memoizes successful fetches for ttl and collapses concurrent
// fetches of the same key. A non-positive ttl only collapses.
type ttlCache[V any] struct {
	kind     string
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time
	observer CacheObserver

	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	group   singleflight.Group
}

func newTTLCache[V any](kind string, ttl, timeout time.Duration, obs CacheObserver) *ttlCache[V] {
	if obs == nil {
		obs = nopObserver{}
	}
	return &ttlCache[V]{
		kind:     kind,
		ttl:      ttl,
		timeout:  timeout,
		now:      time.Now,
		observer: obs,
		entries:  make(map[string]cacheEntry[V]),
	}
}

// get returns the cached value for key or fetches it. The fetch is shared
// by concurrent callers, so it runs detached from any one caller's
// cancellation and is bounded by timeout instead; each caller still
// returns early when its own ctx ends.
func (c *ttlCache[V]) get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	var zero V
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		c.observer.RecordCacheHit(c.kind)
		return e.value, nil
	}
	c.mu.Unlock()

	c.observer.RecordCacheMiss(c.kind)
	ch := c.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.timeout)
			defer cancel()
		}
		v, err := fetch(fctx)
		if err != nil {
			return v, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = cacheEntry[V]{value: v, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *ttlCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// CachedRates memoizes exchange rates from a provider.
type CachedRates struct {
	provider Provider
	cache    *ttlCache[float64]
}

// NewCachedRates wraps p with a rate cache of the given ttl
func NewCachedRates(p Provider, ttl time.Duration, obs CacheObserver) *CachedRates {
	return newCachedRates(p, ttl, 0, obs)
}

func newCachedRates(p Provider, ttl, timeout time.Duration, obs CacheObserver) *CachedRates {
	return &CachedRates{
		provider: p,
		cache:    newTTLCache[float64](KindRate, ttl, timeout, obs),
	}
}

// Rate returns units of cur per 1 USD
func (c *CachedRates) Rate(ctx context.Context, cur core.Currency) (float64, error) {
	if cur == core.BaseCurrency {
		return 1, nil
	}
	return c.cache.get(ctx, string(cur), func(ctx context.Context) (float64, error) {
		return c.provider.FetchRate(ctx, cur)
	})
}

// Lookup binds ctx and returns a rate lookup for a currency.Normalizer
func (c *CachedRates) Lookup(ctx context.Context) currency.RateLookup {
	return func(cur core.Currency) (float64, error) {
		return c.Rate(ctx, cur)
	}
}

// CacheOptions configures a Cached provider
type CacheOptions struct {
	QuoteTTL     time.Duration
	HistoryTTL   time.Duration
	RateTTL      time.Duration
	FetchTimeout time.Duration // bounds a shared fetch; zero leaves it to the provider
	Observer     CacheObserver
}

// Cached decorates a Provider with TTL caches. Returned values are shared
// between callers and must not be modified.
type Cached struct {
	Provider

	quotes  *ttlCache[*Quote]
	history *ttlCache[core.PriceSeries]
	rates   *CachedRates
}

// NewCached wraps p
func NewCached(p Provider, opts CacheOptions) *Cached {
	return &Cached{
		Provider: p,
		quotes:   newTTLCache[*Quote](KindQuote, opts.QuoteTTL, opts.FetchTimeout, opts.Observer),
		history:  newTTLCache[core.PriceSeries](KindHistory, opts.HistoryTTL, opts.FetchTimeout, opts.Observer),
		rates:    newCachedRates(p, opts.RateTTL, opts.FetchTimeout, opts.Observer),
	}
}

func (c *Cached) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	return c.quotes.get(ctx, ticker, func(ctx context.Context) (*Quote, error) {
		return c.Provider.FetchQuote(ctx, ticker)
	})
}

func (c *Cached) FetchHistory(ctx context.Context, ticker string, rng Range) (core.PriceSeries, error) {
	return c.history.get(ctx, ticker+"|"+string(rng), func(ctx context.Context) (core.PriceSeries, error) {
		return c.Provider.FetchHistory(ctx, ticker, rng)
	})
}

func (c *Cached) FetchRate(ctx context.Context, cur core.Currency) (float64, error) {
	return c.rates.Rate(ctx, cur)
}

// Rates exposes the rate cache
func (c *Cached) Rates() *CachedRates {
	return c.rates
}

// Purge drops every cached entry
func (c *Cached) Purge() {
	c.quotes.purge()
	c.history.purge()
	c.rates.cache.purge()
}
