package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

// EODHDURL is the default base URL of the EOD Historical Data API.
const EODHDURL = "https://eodhd.com/api"

// EODHDProvider quotes symbols with the real-time API of EOD Historical Data
// and searches its catalogue. Symbols without an exchange suffix are looked
// up on the US exchanges. Search results are cached on disk for the day.
type EODHDProvider struct {
	client   *resty.Client
	search   *resty.Client
	currency string
}

// NewEODHDProvider uses baseURL, or EODHDURL if empty, and caches searches
// in cacheDir. Prices are read in currency.
func NewEODHDProvider(baseURL, apiKey string, timeout time.Duration, currency, cacheDir string) *EODHDProvider {
	if baseURL == "" {
		baseURL = EODHDURL
	}
	newClient := func() *resty.Client {
		return resty.New().
			SetTimeout(timeout).
			SetBaseURL(baseURL).
			SetQueryParams(map[string]string{"api_token": apiKey, "fmt": "json"})
	}
	return &EODHDProvider{
		client:   newClient(),
		search:   newClient().SetTransport(newDiskCache(cacheDir)),
		currency: currency,
	}
}

// eodhdTicker returns the EODHD code of symbol.
func eodhdTicker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + ".US"
}

// field is a number the API may also send as a string, or as "NA".
type field json.RawMessage

func (f *field) UnmarshalJSON(b []byte) error {
	*f = append((*f)[:0], b...)
	return nil
}

func (f field) value() (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(string(bytes.Trim(f, `"`)))
	return d, err == nil
}

type realTime struct {
	Code          string `json:"code"`
	Timestamp     field  `json:"timestamp"`
	Close         field  `json:"close"`
	PreviousClose field  `json:"previousClose"`
	Change        field  `json:"change"`
	ChangePercent field  `json:"change_p"`
}

func (p *EODHDProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = folio.NormalizeSymbol(symbol)
	slog.Debug("start EODHDProvider.Quote request", slog.String("symbol", symbol))

	var rt realTime
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("ticker", eodhdTicker(symbol)).
		SetResult(&rt).
		Get("/real-time/{ticker}")
	if err != nil {
		slog.Error("error while dialing eodhd", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return Quote{}, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	if resp.IsError() {
		return Quote{}, fmt.Errorf("quote %s: unexpected status %s", symbol, resp.Status())
	}
	price, ok := rt.Close.value()
	if !ok {
		// unknown tickers are answered with "NA" values
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}

	q := Quote{
		Symbol: symbol,
		Name:   rt.Code,
		Price:  folio.M(price, p.currency),
		Time:   time.Now(),
	}
	if ts, ok := rt.Timestamp.value(); ok {
		q.Time = time.Unix(ts.IntPart(), 0)
	}
	if change, ok := rt.Change.value(); ok {
		q.Change = change.InexactFloat64()
	}
	if pct, ok := rt.ChangePercent.value(); ok {
		q.ChangePercent = pct.InexactFloat64()
	}
	return q, nil
}

type searchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Currency string `json:"Currency"`
}

func (r searchResult) category() Category {
	switch {
	case r.Exchange == "CC":
		return Crypto
	case r.Exchange == "FOREX" || r.Type == "Currency":
		return Forex
	case r.Exchange == "COMM":
		return Commodities
	}
	return Stocks
}

// Search returns the instruments EODHD matches with query.
func (p *EODHDProvider) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	var found []searchResult
	resp, err := p.search.R().
		SetContext(ctx).
		SetPathParam("query", query).
		SetResult(&found).
		Get("/search/{query}")
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search %q: unexpected status %s", query, resp.Status())
	}
	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		symbol := r.Code + "." + r.Exchange
		if r.Exchange == "US" {
			symbol = r.Code
		}
		results = append(results, SearchResult{Symbol: symbol, Name: r.Name, Category: r.category()})
	}
	return results, nil
}
