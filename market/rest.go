package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

// RESTProvider quotes symbols with GET {baseURL}/quote/{symbol}. The price is
// read from the JSON response at a configurable jsonpath, so that any quote
// API returning JSON can be plugged in.
type RESTProvider struct {
	client    *resty.Client
	pricePath string
	currency  string
}

func NewRESTProvider(baseURL string, timeout time.Duration, pricePath, currency string) *RESTProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &RESTProvider{client: client, pricePath: pricePath, currency: currency}
}

func (p *RESTProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = folio.NormalizeSymbol(symbol)
	slog.Debug("start RESTProvider.Quote request", slog.String("symbol", symbol))

	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		Get("/quote/{symbol}")
	if err != nil {
		slog.Error("error while dialing quote API", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return Quote{}, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	if resp.IsError() {
		return Quote{}, fmt.Errorf("quote %s: unexpected status %s", symbol, resp.Status())
	}

	price, err := p.extract(resp.Body())
	if err != nil {
		slog.Error("can't read price", slog.String("err", err.Error()), slog.String("symbol", symbol))
		return Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	slog.Debug("RESTProvider.Quote request complete", slog.String("symbol", symbol), slog.String("price", price.String()))
	return Quote{
		Symbol: symbol,
		Name:   symbol,
		Price:  folio.M(price, p.currency),
		Time:   time.Now(),
	}, nil
}

// extract reads the price at p.pricePath in body.
func (p *RESTProvider) extract(body []byte) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid json: %w", err)
	}
	v, err := jsonpath.Get(p.pricePath, doc)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q: %w", p.pricePath, err)
	}
	// jsonpath returns a list for wildcard and filter paths, keep the first.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return decimal.Decimal{}, fmt.Errorf("%q: no match", p.pricePath)
		}
		v = list[0]
	}
	var price decimal.Decimal
	switch t := v.(type) {
	case json.Number:
		price, err = decimal.NewFromString(t.String())
	case string:
		price, err = decimal.NewFromString(t)
	case float64:
		price = decimal.NewFromFloat(t)
	default:
		return decimal.Decimal{}, fmt.Errorf("%q: not a number: %v", p.pricePath, v)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q: %w", p.pricePath, err)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%q: negative price %s", p.pricePath, price)
	}
	return price, nil
}
