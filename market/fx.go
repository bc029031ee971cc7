package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
)

// ErrUnknownCurrency is returned when a rate provider cannot convert from or
// to a currency.
var ErrUnknownCurrency = errors.New("unknown currency")

// Rater returns exchange rates: one unit of from is worth rate units of to.
type Rater interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Convert exchanges m into currency. Amounts without a currency, or already
// in currency, are returned as is.
func Convert(ctx context.Context, r Rater, m folio.Money, currency string) (folio.Money, error) {
	if m.Currency() == "" || m.Currency() == currency {
		return m, nil
	}
	rate, err := r.Rate(ctx, m.Currency(), currency)
	if err != nil {
		return folio.Money{}, err
	}
	return m.Exchange(rate, currency), nil
}

// NewRater returns the rate provider selected by cfg, cached for
// cfg.FX.CacheTTL.
func NewRater(cfg *config.Config) (Rater, error) {
	var r Rater
	switch cfg.FX.Provider {
	case config.FXMock, "":
		r = NewMockRates()
	case config.FXREST:
		r = NewRESTRates(cfg.FX.URL, cfg.Market.Timeout)
	case config.FXEODHD:
		r = NewEODHDProvider(cfg.Market.URL, cfg.Market.APIKey, cfg.Market.Timeout, cfg.Currency, cfg.StatePath("cache"))
	default:
		return nil, fmt.Errorf("unknown fx provider %q", cfg.FX.Provider)
	}
	return NewCachedRates(r, cfg.FX.CacheTTL), nil
}

func normalizeCurrencies(from, to string) (string, string) {
	return strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
}

// MockRates derives rates from fixed values of the major currencies
// against the US dollar.
type MockRates struct {
	perUSD map[string]decimal.Decimal
}

func NewMockRates() *MockRates {
	perUSD := map[string]string{
		"USD": "1",
		"EUR": "0.85",
		"TRY": "27.5",
		"GBP": "0.73",
		"JPY": "110",
		"CAD": "1.25",
		"AUD": "1.35",
		"CHF": "0.92",
		"CNY": "6.45",
		"INR": "74.5",
	}
	r := &MockRates{perUSD: make(map[string]decimal.Decimal, len(perUSD))}
	for cur, v := range perUSD {
		r.perUSD[cur] = decimal.RequireFromString(v)
	}
	return r
}

// Currencies lists the supported currencies, sorted.
func (r *MockRates) Currencies() []string {
	out := make([]string, 0, len(r.perUSD))
	for cur := range r.perUSD {
		out = append(out, cur)
	}
	slices.Sort(out)
	return out
}

func (r *MockRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	from, to = normalizeCurrencies(from, to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	f, ok := r.perUSD[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", from, ErrUnknownCurrency)
	}
	t, ok := r.perUSD[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", to, ErrUnknownCurrency)
	}
	return t.DivRound(f, 10), nil
}

// RESTRates reads rates with GET {baseURL}/fx/rate?from=EUR&to=USD, answered
// by {"rate": 1.08}.
type RESTRates struct {
	client *resty.Client
}

func NewRESTRates(baseURL string, timeout time.Duration) *RESTRates {
	client := resty.New().
		SetTimeout(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &RESTRates{client: client}
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

func (r *RESTRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = normalizeCurrencies(from, to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	var body rateResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"from": from, "to": to}).
		SetResult(&body).
		Get("/fx/rate")
	if err != nil {
		slog.Error("error while dialing fx API", slog.String("err", err.Error()), slog.String("from", from), slog.String("to", to))
		return decimal.Decimal{}, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return decimal.Decimal{}, fmt.Errorf("%s/%s: %w", from, to, ErrUnknownCurrency)
	}
	if resp.IsError() {
		return decimal.Decimal{}, fmt.Errorf("rate %s/%s: unexpected status %s", from, to, resp.Status())
	}
	if !body.Rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate %s/%s: invalid rate %s", from, to, body.Rate)
	}
	return body.Rate, nil
}

// Rate reads the FROMTO.FOREX real-time quote.
func (p *EODHDProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = normalizeCurrencies(from, to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	q, err := p.Quote(ctx, from+to+".FOREX")
	if errors.Is(err, ErrUnknownSymbol) {
		return decimal.Decimal{}, fmt.Errorf("%s/%s: %w", from, to, ErrUnknownCurrency)
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return q.Price.Decimal(), nil
}

type cachedRate struct {
	rate decimal.Decimal
	at   time.Time
}

// CachedRates keeps the rates of another Rater for a while. When a rate
// cannot be refreshed, the expired one is used.
type CachedRates struct {
	rater Rater
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	rates map[string]cachedRate
}

func NewCachedRates(r Rater, ttl time.Duration) *CachedRates {
	return &CachedRates{rater: r, ttl: ttl, now: time.Now, rates: make(map[string]cachedRate)}
}

func (c *CachedRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = normalizeCurrencies(from, to)
	key := from + "_" + to
	c.mu.Lock()
	cached, ok := c.rates[key]
	c.mu.Unlock()
	if ok && c.now().Sub(cached.at) < c.ttl {
		return cached.rate, nil
	}

	rate, err := c.rater.Rate(ctx, from, to)
	if err != nil {
		if ok && !errors.Is(err, ErrUnknownCurrency) {
			slog.Warn("using an expired rate", slog.String("pair", key), slog.String("err", err.Error()))
			return cached.rate, nil
		}
		return decimal.Decimal{}, err
	}
	c.mu.Lock()
	c.rates[key] = cachedRate{rate: rate, at: c.now()}
	c.mu.Unlock()
	return rate, nil
}
