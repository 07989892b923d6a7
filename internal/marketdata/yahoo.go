package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/currency"
)

const (
	yahooBaseURL        = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooDefaultTimeout = 10 * time.Second
)

// validTicker matches tickers like AAPL, BRK-B, YPFD.BA, PETR4.SA, USDARS=X
var validTicker = regexp.MustCompile(`^[A-Za-z0-9^=\-]{1,12}(\.[A-Za-z]{1,4})?$`)

func validateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("ticker cannot be empty")
	}
	if len(ticker) > 20 {
		return fmt.Errorf("ticker too long: %s", ticker)
	}
	if !validTicker.MatchString(ticker) {
		return fmt.Errorf("invalid ticker format: %s", ticker)
	}
	return nil
}

// Yahoo implements Provider on the Yahoo Finance chart API
type Yahoo struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	now     func() time.Time
}

// NewYahoo creates a Yahoo provider. A zero timeout uses 10s.
func NewYahoo(timeout time.Duration) *Yahoo {
	if timeout <= 0 {
		timeout = yahooDefaultTimeout
	}
	return &Yahoo{
		client:  &http.Client{Timeout: timeout},
		baseURL: yahooBaseURL,
		limiter: rate.NewLimiter(rate.Inf, 1),
		now:     time.Now,
	}
}

// SetRateLimit caps outgoing requests per second. Zero or less removes the cap.
func (y *Yahoo) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		y.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	y.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// fxSymbol returns the Yahoo pair quoting cur per 1 USD
func fxSymbol(cur core.Currency) string {
	return "USD" + string(cur) + "=X"
}

// FetchQuote fetches the latest price in the ticker's native currency
func (y *Yahoo) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	if err := validateTicker(ticker); err != nil {
		return nil, err
	}

	r, err := y.chart(ctx, ticker, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	price := r.Meta.RegularMarketPrice
	ts := time.Unix(int64(r.Meta.RegularMarketTime), 0)
	if price <= 0 {
		bar, ok := lastBar(r)
		if !ok {
			return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no price for %s", ticker))
		}
		price, ts = bar.Close, bar.Time
	}

	return &Quote{
		Ticker: ticker,
		Price:  price,
		Time:   ts,
		Source: y.Name(),
	}, nil
}

// FetchHistory fetches daily bars covering rng
func (y *Yahoo) FetchHistory(ctx context.Context, ticker string, rng Range) (core.PriceSeries, error) {
	if err := validateTicker(ticker); err != nil {
		return nil, err
	}

	end := y.now()
	params := url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprint(rng.Start(end).Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
	}

	r, err := y.chart(ctx, ticker, params)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	return toSeries(ticker, r), nil
}

// FetchRate fetches units of cur per 1 USD, rounded to 2 decimals
func (y *Yahoo) FetchRate(ctx context.Context, cur core.Currency) (float64, error) {
	if cur == core.BaseCurrency {
		return 1, nil
	}

	r, err := y.chart(ctx, fxSymbol(cur), url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return 0, core.WrapError(core.ErrRateUnavailable, fmt.Errorf("fetching %s rate: %w", cur, err))
	}

	rate := r.Meta.RegularMarketPrice
	if rate <= 0 {
		bar, ok := lastBar(r)
		if !ok {
			return 0, core.WrapError(core.ErrRateUnavailable, fmt.Errorf("no %s rate data", cur))
		}
		rate = bar.Close
	}
	return currency.Round2(rate), nil
}

func (y *Yahoo) chart(ctx context.Context, symbol string, params url.Values) (*chartResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	u := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// the chart API rejects requests without a browser-like agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer resp.Body.Close()

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return &result.Chart.Result[0], nil
}

func toSeries(ticker string, r *chartResult) core.PriceSeries {
	if len(r.Indicators.Quote) == 0 {
		return core.PriceSeries{}
	}
	q := r.Indicators.Quote[0]

	series := make(core.PriceSeries, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue // Skip missing data
		}
		c := *q.Close[i]
		bar := core.OHLCV{
			Symbol:   ticker,
			Interval: "1d",
			Open:     valueOr(q.Open, i, c),
			High:     valueOr(q.High, i, c),
			Low:      valueOr(q.Low, i, c),
			Close:    c,
			Time:     time.Unix(int64(ts), 0).UTC(),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = int64(*q.Volume[i])
		}
		series = append(series, bar)
	}
	return series
}

func lastBar(r *chartResult) (core.OHLCV, bool) {
	return toSeries("", r).Last()
}

func valueOr(vals []*float64, i int, def float64) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return def
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
