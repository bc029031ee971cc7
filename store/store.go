// Package store persists the transaction ledger and the holding snapshots.
//
// Implementations include a JSONL file (the default, human readable and
// version-controllable), Redis, PostgreSQL and an in-memory store for tests.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/config"
)

// ErrNotFound is returned when a transaction ID is unknown.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface.
//
// Transactions are returned sorted by ascending time. A Store does not
// validate the consistency of the ledger, that is the job of the engine.
type Store interface {
	// AppendTransaction adds tx to the ledger.
	AppendTransaction(ctx context.Context, tx folio.Transaction) error

	// LoadTransactions returns the transactions of one symbol.
	LoadTransactions(ctx context.Context, symbol string) ([]folio.Transaction, error)

	// AllTransactions returns the whole ledger.
	AllTransactions(ctx context.Context) ([]folio.Transaction, error)

	// RemoveTransaction deletes a transaction and returns it.
	RemoveTransaction(ctx context.Context, id string) (folio.Transaction, error)

	// SaveHolding replaces the snapshot of h.Symbol.
	SaveHolding(ctx context.Context, h folio.Holding) error

	// LoadHolding returns the snapshot of symbol, or nil if there is none.
	LoadHolding(ctx context.Context, symbol string) (*folio.Holding, error)

	// DeleteHolding removes the snapshot of symbol, if any.
	DeleteHolding(ctx context.Context, symbol string) error

	Close() error
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreFile, "":
		return NewFileStore(cfg.Store.LedgerFile, cfg.StatePath("holdings.json")), nil
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.Store.RedisURL)
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.Store.DatabaseURL)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store.Kind)
}
