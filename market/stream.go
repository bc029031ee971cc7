package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

// StreamProvider reads a Binance style ticker stream over a websocket:
// messages are a ticker object or an array of them, with the symbol in "s",
// the last price in "c", the change in "p" and the change percent in "P".
//
// The connection is re-established after failures with an exponential
// backoff, and abandoned after MaxAttempts consecutive failures.
type StreamProvider struct {
	url      string
	currency string
	dialer   *websocket.Dialer

	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	QuoteTimeout time.Duration // for Quote, waiting for the first tick
}

func NewStreamProvider(url, currency string) *StreamProvider {
	return &StreamProvider{
		url:          url,
		currency:     currency,
		dialer:       websocket.DefaultDialer,
		MaxAttempts:  5,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		QuoteTimeout: 5 * time.Second,
	}
}

// ticker is one entry of the stream.
type ticker struct {
	Symbol        string          `json:"s"`
	Last          decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"p"`
	ChangePercent decimal.Decimal `json:"P"`
	EventTime     int64           `json:"E"`
}

func (t ticker) quote(currency string) Quote {
	at := time.Now()
	if t.EventTime > 0 {
		at = time.UnixMilli(t.EventTime)
	}
	return Quote{
		Symbol:        t.Symbol,
		Name:          t.Symbol,
		Price:         folio.M(t.Last, currency),
		Change:        t.Change.InexactFloat64(),
		ChangePercent: t.ChangePercent.InexactFloat64(),
		Category:      Crypto,
		Time:          at,
	}
}

// parseTickers decodes a single ticker or an array of tickers.
func parseTickers(msg []byte) ([]ticker, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) > 0 && msg[0] == '[' {
		var ts []ticker
		err := json.Unmarshal(msg, &ts)
		return ts, err
	}
	var t ticker
	if err := json.Unmarshal(msg, &t); err != nil {
		return nil, err
	}
	return []ticker{t}, nil
}

// backoff returns the delay before the n-th reconnection, n starting at 1.
func (p *StreamProvider) backoff(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n && d < p.MaxDelay; i++ {
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// Stream implements Streamer. It returns nil when ctx is done, and an error
// when reconnection attempts are exhausted.
func (p *StreamProvider) Stream(ctx context.Context, symbols []string, onTick func(Quote)) error {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[folio.NormalizeSymbol(s)] = true
	}
	failures := 0
	for {
		received, err := p.session(ctx, wanted, onTick)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			failures = 0
		}
		failures++
		if failures > p.MaxAttempts {
			return fmt.Errorf("ticker stream %s: giving up after %d attempts: %w", p.url, p.MaxAttempts, err)
		}
		delay := p.backoff(failures)
		slog.Warn("ticker stream interrupted", slog.String("err", err.Error()), slog.Int("attempt", failures), slog.Duration("retry in", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// session reads one connection until it fails. received reports whether any
// message was read.
func (p *StreamProvider) session(ctx context.Context, wanted map[string]bool, onTick func(Quote)) (received bool, err error) {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return false, err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return received, err
		}
		if ctx.Err() != nil {
			return received, ctx.Err()
		}
		received = true
		tickers, err := parseTickers(msg)
		if err != nil {
			slog.Debug("skipping ticker message", slog.String("err", err.Error()))
			continue
		}
		for _, t := range tickers {
			if ctx.Err() != nil {
				return received, ctx.Err()
			}
			if len(wanted) > 0 && !wanted[t.Symbol] {
				continue
			}
			onTick(t.quote(p.currency))
		}
	}
}

// Quote waits for the next tick of symbol.
func (p *StreamProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = folio.NormalizeSymbol(symbol)
	ctx, cancel := context.WithTimeout(ctx, p.QuoteTimeout)
	defer cancel()

	found := make(chan Quote, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- p.Stream(ctx, []string{symbol}, func(q Quote) {
			select {
			case found <- q:
				cancel()
			default:
			}
		})
	}()
	select {
	case q := <-found:
		return q, nil
	case err := <-errc:
		// Stream returns nil on cancellation, a tick may have raced it.
		select {
		case q := <-found:
			return q, nil
		default:
		}
		if err == nil {
			err = ctx.Err()
		}
		return Quote{}, fmt.Errorf("waiting for a %s tick: %w", symbol, err)
	}
}
