// Package dca runs dollar-cost averaging plans: recurring buys of a fixed
// cash amount or a fixed number of units.
package dca

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/internal/jsonfile"
	"github.com/etnz/folio/market"
)

var ErrNotFound = errors.New("plan not found")

type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

type AmountType string

const (
	Cash  AmountType = "cash"  // Amount is spent at each run
	Units AmountType = "units" // Amount units are bought at each run
)

// cashPrecision is the number of decimal places of quantities bought with a
// cash amount.
const cashPrecision = 8

// Plan is a recurring buy.
type Plan struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Frequency  Frequency       `json:"frequency"`
	AmountType AmountType      `json:"amountType"`
	Amount     decimal.Decimal `json:"amount"`
	NextRun    date.Date       `json:"nextRunAt"`
	Active     bool            `json:"isActive"`
	Note       string          `json:"note,omitempty"`
}

// NewPlan returns an active plan whose first run is on start.
func NewPlan(symbol string, freq Frequency, amountType AmountType, amount decimal.Decimal, start date.Date) (Plan, error) {
	symbol = folio.NormalizeSymbol(symbol)
	switch {
	case symbol == "":
		return Plan{}, &folio.ValidationError{Field: "symbol", Reason: "symbol is missing"}
	case freq != Weekly && freq != Biweekly && freq != Monthly:
		return Plan{}, &folio.ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q (use weekly|biweekly|monthly)", freq)}
	case amountType != Cash && amountType != Units:
		return Plan{}, &folio.ValidationError{Field: "amount type", Reason: fmt.Sprintf("unknown amount type %q (use cash|units)", amountType)}
	case !amount.IsPositive():
		return Plan{}, &folio.ValidationError{Field: "amount", Reason: fmt.Sprintf("amount must be positive, got %s", amount)}
	}
	return Plan{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Frequency:  freq,
		AmountType: amountType,
		Amount:     amount,
		NextRun:    start,
		Active:     true,
	}, nil
}

// Next returns the run following from.
func Next(freq Frequency, from date.Date) date.Date {
	switch freq {
	case Weekly:
		return from.Add(7)
	case Biweekly:
		return from.Add(14)
	case Monthly:
		return from.AddMonths(1)
	}
	return from
}

// IsDue reports whether p must run on day on.
func (p Plan) IsDue(on date.Date) bool {
	return p.Active && !p.NextRun.After(on)
}

// Due returns the plans that must run on day on.
func Due(plans []Plan, on date.Date) []Plan {
	var due []Plan
	for _, p := range plans {
		if p.IsDue(on) {
			due = append(due, p)
		}
	}
	return due
}

// Order returns the buy executing p at the quoted price.
func Order(p Plan, q market.Quote, at time.Time) (folio.Transaction, error) {
	quantity := p.Amount
	if p.AmountType == Cash {
		if !q.Price.IsPositive() {
			return folio.Transaction{}, &folio.ValidationError{Field: "price", Reason: fmt.Sprintf("cannot buy %s %s of %s at %s", p.Amount, q.Price.Currency(), p.Symbol, q.Price)}
		}
		quantity = p.Amount.DivRound(q.Price.Decimal(), cashPrecision)
	}
	tx := folio.NewBuy(at, p.Symbol, folio.Q(quantity), q.Price, folio.Money{})
	tx.Note = fmt.Sprintf("DCA %s plan %s", p.Frequency, p.ID)
	if err := tx.Validate(); err != nil {
		return folio.Transaction{}, err
	}
	return tx, nil
}

// Book is the set of plans, stored in a JSON file. It is safe for
// concurrent use.
type Book struct {
	mu    sync.Mutex
	path  string
	plans []Plan
}

// Open loads the plans stored at path, if any.
func Open(path string) (*Book, error) {
	b := &Book{path: path}
	if err := jsonfile.Read(path, &b.plans); err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}
	return b, nil
}

func (b *Book) save() error { return jsonfile.Write(b.path, b.plans) }

func (b *Book) Add(p Plan) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.plans = append(b.plans, p)
	return b.save()
}

// Remove deletes the plan id and returns it.
func (b *Book) Remove(id string) (Plan, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.plans, func(p Plan) bool { return p.ID == id })
	if i < 0 {
		return Plan{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	p := b.plans[i]
	b.plans = slices.Delete(b.plans, i, i+1)
	return p, b.save()
}

// Update replaces the plan with the same ID.
func (b *Book) Update(p Plan) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.plans, func(q Plan) bool { return q.ID == p.ID })
	if i < 0 {
		return fmt.Errorf("%s: %w", p.ID, ErrNotFound)
	}
	b.plans[i] = p
	return b.save()
}

// List returns the plans in creation order.
func (b *Book) List() []Plan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.plans)
}
