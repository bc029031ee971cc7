// Package alert watches prices against user defined thresholds and defines
// the notifications the tools raise.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/internal/jsonfile"
	"github.com/etnz/folio/market"
)

var ErrNotFound = errors.New("alert not found")

type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// Alert fires when the price of Symbol crosses Target in Direction.
type Alert struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Target    decimal.Decimal `json:"targetPrice"`
	Direction Direction       `json:"type"`
	Enabled   bool            `json:"enabled"`
	Note      string          `json:"note,omitempty"`
	Created   time.Time       `json:"created"`
}

// New returns an enabled alert.
func New(symbol string, target decimal.Decimal, dir Direction, note string) (Alert, error) {
	symbol = folio.NormalizeSymbol(symbol)
	if symbol == "" {
		return Alert{}, &folio.ValidationError{Field: "symbol", Reason: "symbol is missing"}
	}
	if !target.IsPositive() {
		return Alert{}, &folio.ValidationError{Field: "target", Reason: fmt.Sprintf("target price must be positive, got %s", target)}
	}
	if dir != Above && dir != Below {
		return Alert{}, &folio.ValidationError{Field: "direction", Reason: fmt.Sprintf("unknown direction %q (use above|below)", dir)}
	}
	return Alert{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Target:    target,
		Direction: dir,
		Enabled:   true,
		Note:      strings.TrimSpace(note),
		Created:   time.Now(),
	}, nil
}

// Triggered reports whether price reached the target. Reaching it exactly
// counts.
func (a Alert) Triggered(price decimal.Decimal) bool {
	switch a.Direction {
	case Above:
		return price.GreaterThanOrEqual(a.Target)
	case Below:
		return price.LessThanOrEqual(a.Target)
	}
	return false
}

func (a Alert) String() string {
	return fmt.Sprintf("%s %s %s", a.Symbol, a.Direction, a.Target)
}

// Check quotes the symbols of the enabled alerts, once each, and returns a
// PriceAlert for every triggered one. Unknown symbols are skipped.
func Check(ctx context.Context, q market.Quoter, alerts []Alert) ([]Notification, error) {
	quotes := make(map[string]market.Quote)
	var notes []Notification
	for _, a := range alerts {
		if !a.Enabled {
			continue
		}
		quote, ok := quotes[a.Symbol]
		if !ok {
			var err error
			quote, err = q.Quote(ctx, a.Symbol)
			if errors.Is(err, market.ErrUnknownSymbol) {
				slog.Warn("alert on unknown symbol", slog.String("symbol", a.Symbol), slog.String("alert", a.ID))
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("checking alerts: %w", err)
			}
			quotes[a.Symbol] = quote
		}
		if a.Triggered(quote.Price.Decimal()) {
			notes = append(notes, PriceAlert{Alert: a, Price: quote.Price})
		}
	}
	return notes, nil
}

// Book is the set of alerts, stored in a JSON file. It is safe for
// concurrent use.
type Book struct {
	mu     sync.Mutex
	path   string
	alerts []Alert
}

// Open loads the alerts stored at path, if any.
func Open(path string) (*Book, error) {
	b := &Book{path: path}
	if err := jsonfile.Read(path, &b.alerts); err != nil {
		return nil, fmt.Errorf("loading alerts: %w", err)
	}
	return b, nil
}

func (b *Book) save() error { return jsonfile.Write(b.path, b.alerts) }

func (b *Book) Add(a Alert) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, a)
	return b.save()
}

// Remove deletes the alert id and returns it.
func (b *Book) Remove(id string) (Alert, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.alerts, func(a Alert) bool { return a.ID == id })
	if i < 0 {
		return Alert{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	a := b.alerts[i]
	b.alerts = slices.Delete(b.alerts, i, i+1)
	return a, b.save()
}

// SetEnabled turns the alert id on or off.
func (b *Book) SetEnabled(id string, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.alerts {
		if b.alerts[i].ID == id {
			b.alerts[i].Enabled = enabled
			return b.save()
		}
	}
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}

// List returns the alerts in creation order.
func (b *Book) List() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.alerts)
}
