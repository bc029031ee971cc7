// Package market provides price quotes. Providers are interchangeable
// strategies: a random walk for demos and tests, a REST API, or a websocket
// ticker stream. The accounting engine never calls them; quotes are fed to it
// as plain prices.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
)

// ErrUnknownSymbol is returned when a provider has no quote for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

type Category string

const (
	Crypto      Category = "crypto"
	Stocks      Category = "stocks"
	Forex       Category = "forex"
	Commodities Category = "commodities"
)

// Quote is the last known price of a symbol.
type Quote struct {
	Symbol        string
	Name          string
	Price         folio.Money
	Change        float64 // since the reference price
	ChangePercent float64
	Category      Category
	Time          time.Time
}

// SearchResult is a symbol matching a search.
type SearchResult struct {
	Symbol   string
	Name     string
	Category Category
}

// Quoter returns the current quote of a symbol.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Searcher finds symbols by name or ticker.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Streamer calls onTick for every quote of the given symbols until ctx is
// done. An empty symbols list streams everything the provider has.
type Streamer interface {
	Stream(ctx context.Context, symbols []string, onTick func(Quote)) error
}

// New returns the provider selected by cfg.
func New(cfg *config.Config) (Quoter, error) {
	switch cfg.Market.Provider {
	case config.MarketMock, "":
		return NewMockProvider(nil), nil
	case config.MarketREST:
		return NewRESTProvider(cfg.Market.URL, cfg.Market.Timeout, cfg.Market.PricePath, cfg.Currency), nil
	case config.MarketWS:
		return NewStreamProvider(cfg.Market.URL, cfg.Currency), nil
	case config.MarketEODHD:
		return NewEODHDProvider(cfg.Market.URL, cfg.Market.APIKey, cfg.Market.Timeout, cfg.Currency, cfg.StatePath("cache")), nil
	}
	return nil, fmt.Errorf("unknown market provider %q", cfg.Market.Provider)
}

// Prices quotes each symbol. Unknown symbols are left out of the result,
// any other error aborts.
func Prices(ctx context.Context, q Quoter, symbols []string) (map[string]folio.Money, error) {
	prices := make(map[string]folio.Money, len(symbols))
	for _, symbol := range symbols {
		quote, err := q.Quote(ctx, symbol)
		if errors.Is(err, ErrUnknownSymbol) {
			slog.Debug("no quote", slog.String("symbol", symbol))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", symbol, err)
		}
		prices[symbol] = quote.Price
	}
	return prices, nil
}
