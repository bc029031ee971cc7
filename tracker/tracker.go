// Package tracker records transactions and answers position queries. It
// ties the accounting engine to a store, a quote provider and the activity
// log.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/folio"
	"github.com/etnz/folio/activity"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/metrics"
	"github.com/etnz/folio/store"
)

// Service is safe for concurrent use: writes are serialized.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	quoter   market.Quoter
	rates    market.Rater
	log      *activity.Log
	currency string
}

// New returns a service over s. Holdings are valued with q when it is not
// nil, and actions are logged to log when it is not nil.
func New(s store.Store, q market.Quoter, log *activity.Log, currency string) *Service {
	return &Service{store: s, quoter: q, log: log, currency: currency}
}

// WithRates converts quotes and holdings in other currencies with r.
func (s *Service) WithRates(r market.Rater) *Service {
	s.rates = r
	return s
}

// Record applies tx to its holding and persists both. On error nothing is
// persisted.
func (s *Service) Record(ctx context.Context, tx folio.Transaction) (*folio.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.record(ctx, tx)
	metrics.Transaction(string(tx.Side), err)
	if err != nil {
		return nil, err
	}
	if err := s.logEntry(activity.AddTransaction{Tx: tx}); err != nil {
		return h, err
	}
	return h, nil
}

func (s *Service) record(ctx context.Context, tx folio.Transaction) (*folio.Holding, error) {
	slog.Debug("recording transaction", slog.String("symbol", tx.Symbol), slog.String("side", string(tx.Side)))
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	history, err := s.store.LoadTransactions(ctx, tx.Symbol)
	if err != nil {
		return nil, fmt.Errorf("loading %s history: %w", tx.Symbol, err)
	}

	var h *folio.Holding
	if n := len(history); n > 0 && tx.Time.Before(history[n-1].Time) {
		// A backdated transaction changes the history it is inserted in.
		h, err = folio.Replay(append(slices.Clip(history), tx), folio.Money{})
	} else {
		var prev *folio.Holding
		prev, err = s.snapshot(ctx, tx.Symbol, history)
		if err != nil {
			return nil, err
		}
		h, err = folio.Apply(prev, tx)
	}
	if err != nil {
		slog.Debug("transaction rejected", slog.String("symbol", tx.Symbol), slog.String("err", err.Error()))
		return nil, err
	}

	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}
	if err := s.store.SaveHolding(ctx, *h); err != nil {
		err = fmt.Errorf("saving %s holding: %w", tx.Symbol, err)
		if _, rerr := s.store.RemoveTransaction(ctx, tx.ID); rerr != nil {
			return nil, errors.Join(err, fmt.Errorf("rolling back transaction %s: %w", tx.ID, rerr))
		}
		return nil, err
	}
	return h, nil
}

// snapshot returns the stored holding of symbol, or replays history when
// there is none.
func (s *Service) snapshot(ctx context.Context, symbol string, history []folio.Transaction) (*folio.Holding, error) {
	h, err := s.store.LoadHolding(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("loading %s holding: %w", symbol, err)
	}
	if h != nil || len(history) == 0 {
		return h, nil
	}
	return folio.Replay(history, folio.Money{})
}

// Remove deletes the transaction id and rebuilds its holding. If the
// remaining history is invalid, for instance because the removed buy funded
// a later sell, the transaction is restored and the error returned.
func (s *Service) Remove(ctx context.Context, id string) (folio.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.remove(ctx, id)
	if err != nil {
		return folio.Transaction{}, err
	}
	return tx, s.logEntry(activity.RemoveTransaction{Tx: tx})
}

func (s *Service) remove(ctx context.Context, id string) (folio.Transaction, error) {
	tx, err := s.store.RemoveTransaction(ctx, id)
	if err != nil {
		return folio.Transaction{}, err
	}
	if err := s.rebuild(ctx, tx.Symbol); err != nil {
		if rerr := s.store.AppendTransaction(ctx, tx); rerr != nil {
			return folio.Transaction{}, errors.Join(err, fmt.Errorf("restoring transaction %s: %w", id, rerr))
		}
		return folio.Transaction{}, fmt.Errorf("removing %s: %w", tx, err)
	}
	slog.Debug("transaction removed", slog.String("id", id), slog.String("symbol", tx.Symbol))
	return tx, nil
}

// Rebuild replays the history of symbol into a fresh snapshot.
func (s *Service) Rebuild(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild(ctx, folio.NormalizeSymbol(symbol))
}

func (s *Service) rebuild(ctx context.Context, symbol string) error {
	history, err := s.store.LoadTransactions(ctx, symbol)
	if err != nil {
		return fmt.Errorf("loading %s history: %w", symbol, err)
	}
	h, err := folio.Replay(history, folio.Money{})
	if err != nil {
		return err
	}
	if h == nil {
		return s.store.DeleteHolding(ctx, symbol)
	}
	return s.store.SaveHolding(ctx, *h)
}

// Undo reverts the most recent undoable action and returns its record.
func (s *Service) Undo(ctx context.Context) (activity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil {
		return activity.Record{}, activity.ErrNothingToUndo
	}
	rec, err := s.log.LastUndoable()
	if err != nil {
		return activity.Record{}, err
	}
	switch e := rec.Entry.(type) {
	case activity.AddTransaction:
		_, err = s.remove(ctx, e.Tx.ID)
	case activity.RemoveTransaction:
		_, err = s.record(ctx, e.Tx)
	default:
		err = fmt.Errorf("%s: %w", rec.Entry.Kind(), activity.ErrNotUndoable)
	}
	if err != nil {
		return activity.Record{}, fmt.Errorf("undoing %q: %w", rec.Entry, err)
	}
	return rec, s.log.MarkUndone(rec.ID)
}

func (s *Service) logEntry(e activity.Entry) error {
	if s.log == nil {
		return nil
	}
	if _, err := s.log.Add(e); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Transactions returns the ledger of symbol, or the whole ledger when symbol
// is empty.
func (s *Service) Transactions(ctx context.Context, symbol string) ([]folio.Transaction, error) {
	if symbol == "" {
		return s.store.AllTransactions(ctx)
	}
	return s.store.LoadTransactions(ctx, folio.NormalizeSymbol(symbol))
}

// Holding returns the holding of symbol, or store.ErrNotFound if it was
// never traded.
func (s *Service) Holding(ctx context.Context, symbol string) (*folio.Holding, error) {
	symbol = folio.NormalizeSymbol(symbol)
	history, err := s.store.LoadTransactions(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("holding %s: %w", symbol, store.ErrNotFound)
	}
	h, err := s.snapshot(ctx, symbol, history)
	if err != nil {
		return nil, err
	}
	valued := s.value(ctx, *h)
	return &valued, nil
}

// Holdings returns every holding, open or closed, sorted by symbol.
func (s *Service) Holdings(ctx context.Context) ([]folio.Holding, error) {
	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string][]folio.Transaction)
	for _, tx := range txs {
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}
	var holdings []folio.Holding
	for symbol, history := range bySymbol {
		h, err := s.snapshot(ctx, symbol, history)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, s.value(ctx, *h))
	}
	slices.SortFunc(holdings, func(a, b folio.Holding) int { return strings.Compare(a.Symbol, b.Symbol) })
	return holdings, nil
}

// value prices h at the current quote. Without a usable quote h keeps the
// price of its last trade.
func (s *Service) value(ctx context.Context, h folio.Holding) folio.Holding {
	if s.quoter == nil || !h.IsOpen() {
		return h
	}
	q, err := s.quoter.Quote(ctx, h.Symbol)
	if err != nil {
		slog.Debug("no quote, using last trade price", slog.String("symbol", h.Symbol), slog.String("err", err.Error()))
		return h
	}
	price := q.Price
	if cur := h.Currency(); s.rates != nil && cur != "" && price.Currency() != cur {
		if price, err = market.Convert(ctx, s.rates, price, cur); err != nil {
			slog.Warn("ignoring quote", slog.String("symbol", h.Symbol), slog.String("err", err.Error()))
			return h
		}
	}
	valued, err := h.WithPrice(price)
	if err != nil {
		slog.Warn("ignoring quote", slog.String("symbol", h.Symbol), slog.String("err", err.Error()))
		return h
	}
	return valued
}

// Portfolio aggregates the holdings in the service currency.
func (s *Service) Portfolio(ctx context.Context) (*folio.Portfolio, error) {
	p, err := s.PortfolioIn(ctx, s.currency)
	if err != nil {
		return nil, err
	}
	metrics.PortfolioValue.WithLabelValues(p.Currency).Set(p.TotalValue.Decimal().InexactFloat64())
	metrics.OpenHoldings.Set(float64(len(p.Open())))
	return p, nil
}

// PortfolioIn aggregates the holdings in currency. Holdings in another
// currency are converted at the current rate, which needs WithRates.
func (s *Service) PortfolioIn(ctx context.Context, currency string) (*folio.Portfolio, error) {
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return nil, err
	}
	for i, h := range holdings {
		cur := h.Currency()
		if s.rates == nil || cur == "" || cur == currency {
			continue
		}
		rate, err := s.rates.Rate(ctx, cur, currency)
		if err != nil {
			return nil, fmt.Errorf("converting %s from %s: %w", h.Symbol, cur, err)
		}
		holdings[i] = h.In(currency, rate)
	}
	return folio.Summarize(currency, holdings)
}
