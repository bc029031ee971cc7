package market

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

type instrument struct {
	SearchResult
	reference decimal.Decimal
	last      decimal.Decimal
}

// catalogue lists the instruments of the mock provider, priced in USD.
func catalogue() []*instrument {
	items := []struct {
		symbol, name string
		category     Category
		price        string
	}{
		{"BTC", "Bitcoin", Crypto, "43250.50"},
		{"ETH", "Ethereum", Crypto, "2280.75"},
		{"AAPL", "Apple Inc.", Stocks, "182.52"},
		{"GOOGL", "Alphabet Inc.", Stocks, "139.68"},
		{"EUR/USD", "Euro/US Dollar", Forex, "1.0892"},
		{"GOLD", "Gold", Commodities, "2042.30"},
	}
	out := make([]*instrument, len(items))
	for i, it := range items {
		p := decimal.RequireFromString(it.price)
		out[i] = &instrument{
			SearchResult: SearchResult{Symbol: it.symbol, Name: it.name, Category: it.category},
			reference:    p,
			last:         p,
		}
	}
	return out
}

// MockProvider quotes a fixed catalogue whose prices follow a random walk:
// every quote moves the last price by at most 2%.
type MockProvider struct {
	mu          sync.Mutex
	rng         *rand.Rand
	instruments []*instrument
	// Interval between two ticks of Stream.
	Interval time.Duration
}

// NewMockProvider uses rng for the walk, or a randomly seeded one if nil.
func NewMockProvider(rng *rand.Rand) *MockProvider {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MockProvider{rng: rng, instruments: catalogue(), Interval: time.Second}
}

func (p *MockProvider) find(symbol string) *instrument {
	symbol = folio.NormalizeSymbol(symbol)
	for _, in := range p.instruments {
		if in.Symbol == symbol {
			return in
		}
	}
	return nil
}

func (p *MockProvider) Quote(_ context.Context, symbol string) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in := p.find(symbol)
	if in == nil {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrUnknownSymbol)
	}
	return p.tick(in), nil
}

// tick moves in and returns its new quote. p.mu must be held.
func (p *MockProvider) tick(in *instrument) Quote {
	move := decimal.NewFromFloat((p.rng.Float64() - 0.5) * 0.04)
	in.last = in.last.Mul(decimal.NewFromInt(1).Add(move)).Round(4)
	change := in.last.Sub(in.reference)
	return Quote{
		Symbol:        in.Symbol,
		Name:          in.Name,
		Price:         folio.M(in.last, "USD"),
		Change:        change.InexactFloat64(),
		ChangePercent: change.Div(in.reference).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		Category:      in.Category,
		Time:          time.Now(),
	}
}

// Stream ticks every Interval. Unknown symbols are ignored.
func (p *MockProvider) Stream(ctx context.Context, symbols []string, onTick func(Quote)) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		var quotes []Quote
		p.mu.Lock()
		for _, in := range p.instruments {
			if len(symbols) == 0 || containsSymbol(symbols, in.Symbol) {
				quotes = append(quotes, p.tick(in))
			}
		}
		p.mu.Unlock()
		for _, q := range quotes {
			onTick(q)
		}
	}
}

// Search returns up to 10 instruments whose symbol or name contains query.
func (p *MockProvider) Search(_ context.Context, query string) ([]SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	var results []SearchResult
	for _, in := range p.instruments {
		if strings.Contains(strings.ToLower(in.Symbol), query) || strings.Contains(strings.ToLower(in.Name), query) {
			results = append(results, in.SearchResult)
		}
		if len(results) == 10 {
			break
		}
	}
	return results, nil
}

func containsSymbol(symbols []string, symbol string) bool {
	for _, s := range symbols {
		if folio.NormalizeSymbol(s) == symbol {
			return true
		}
	}
	return false
}
