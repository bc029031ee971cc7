package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRESTProvider_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/AAPL":
			w.Write([]byte(`{"symbol":"AAPL","price":182.52}`))
		case "/quote/BTC":
			w.Write([]byte(`{"data":{"quotes":[{"last":"43250.123456789"}]}}`))
		case "/quote/BAD":
			w.Write([]byte(`{"price":"n/a"}`))
		case "/quote/DOWN":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	t.Run("default path", func(t *testing.T) {
		p := NewRESTProvider(srv.URL, time.Second, "$.price", "USD")
		q, err := p.Quote(ctx, "aapl")
		if err != nil {
			t.Fatalf("Quote() error = %v", err)
		}
		if q.Symbol != "AAPL" || q.Price.Decimal().String() != "182.52" || q.Price.Currency() != "USD" {
			t.Errorf("Quote() = %+v", q)
		}
	})

	t.Run("nested path keeps every digit", func(t *testing.T) {
		p := NewRESTProvider(srv.URL, time.Second, "$.data.quotes[*].last", "EUR")
		q, err := p.Quote(ctx, "BTC")
		if err != nil {
			t.Fatalf("Quote() error = %v", err)
		}
		if got := q.Price.Decimal().String(); got != "43250.123456789" {
			t.Errorf("Price = %s, want 43250.123456789", got)
		}
	})

	p := NewRESTProvider(srv.URL, time.Second, "$.price", "USD")
	t.Run("unknown", func(t *testing.T) {
		if _, err := p.Quote(ctx, "NOPE"); !errors.Is(err, ErrUnknownSymbol) {
			t.Errorf("Quote() error = %v, want ErrUnknownSymbol", err)
		}
	})
	for _, symbol := range []string{"BAD", "DOWN"} {
		t.Run(symbol, func(t *testing.T) {
			if _, err := p.Quote(ctx, symbol); err == nil || errors.Is(err, ErrUnknownSymbol) {
				t.Errorf("Quote() error = %v, want a failure", err)
			}
		})
	}
}

func TestPrices(t *testing.T) {
	p := NewMockProvider(nil)
	prices, err := Prices(context.Background(), p, []string{"BTC", "NOPE", "GOLD"})
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}
	if len(prices) != 2 || prices["BTC"].IsZero() || prices["GOLD"].IsZero() {
		t.Errorf("Prices() = %v", prices)
	}
}
