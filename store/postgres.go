package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/etnz/folio"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore implements Store on PostgreSQL. Amounts are NUMERIC, read
// back as text to keep them exact.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects to url and migrates the schema.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	slog.Debug("Postgres connected")
	if err := Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgresStore(pool), nil
}

// Migrate brings the schema up to date.
func Migrate(pool *pgxpool.Pool) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres migration source: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("postgres migration failed on WithInstance: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("postgres migration failed on NewWithInstance: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres migration failed on Up: %w", err)
	}
	slog.Debug("postgres migrated successfully")
	return nil
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, tx folio.Transaction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, time, symbol, side, quantity, price, fee, currency, note)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8, $9)`,
		tx.ID, tx.Time, tx.Symbol, string(tx.Side),
		tx.Quantity.String(), tx.Price.Decimal().String(), tx.Fee.Decimal().String(),
		tx.Currency(), tx.Note,
	)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}
	return nil
}

const selectTransactions = `SELECT id, time, symbol, side, quantity::TEXT, price::TEXT, fee::TEXT, currency, note FROM transactions`

func (s *PostgresStore) LoadTransactions(ctx context.Context, symbol string) ([]folio.Transaction, error) {
	rows, err := s.pool.Query(ctx, selectTransactions+` WHERE symbol = $1 ORDER BY time, seq`, symbol)
	if err != nil {
		return nil, fmt.Errorf("load transactions of %s: %w", symbol, err)
	}
	return collectTransactions(rows)
}

func (s *PostgresStore) AllTransactions(ctx context.Context) ([]folio.Transaction, error) {
	rows, err := s.pool.Query(ctx, selectTransactions+` ORDER BY time, seq`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (s *PostgresStore) RemoveTransaction(ctx context.Context, id string) (folio.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM transactions WHERE id = $1
		 RETURNING id, time, symbol, side, quantity::TEXT, price::TEXT, fee::TEXT, currency, note`, id)
	if err != nil {
		return folio.Transaction{}, fmt.Errorf("remove transaction %s: %w", id, err)
	}
	txs, err := collectTransactions(rows)
	if err != nil {
		return folio.Transaction{}, err
	}
	if len(txs) == 0 {
		return folio.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return txs[0], nil
}

func collectTransactions(rows pgx.Rows) ([]folio.Transaction, error) {
	defer rows.Close()
	var txs []folio.Transaction
	for rows.Next() {
		var (
			tx                  folio.Transaction
			side, currency      string
			quantity, price, fee string
		)
		if err := rows.Scan(&tx.ID, &tx.Time, &tx.Symbol, &side, &quantity, &price, &fee, &currency, &tx.Note); err != nil {
			return nil, err
		}
		tx.Side = folio.Side(side)
		var err error
		if tx.Quantity, err = folio.ParseQuantity(quantity); err != nil {
			return nil, err
		}
		if tx.Price, err = folio.ParseMoney(price, currency); err != nil {
			return nil, err
		}
		if tx.Fee, err = folio.ParseMoney(fee, currency); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) SaveHolding(ctx context.Context, h folio.Holding) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO holdings (symbol, currency, quantity, average_cost, price, realized)
		 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC)
		 ON CONFLICT (symbol) DO UPDATE SET
		   currency = EXCLUDED.currency,
		   quantity = EXCLUDED.quantity,
		   average_cost = EXCLUDED.average_cost,
		   price = EXCLUDED.price,
		   realized = EXCLUDED.realized`,
		h.Symbol, h.Currency(), h.Quantity.String(),
		h.AverageCost.Decimal().String(), h.Price.Decimal().String(), h.Realized.Decimal().String(),
	)
	if err != nil {
		return fmt.Errorf("save holding %s: %w", h.Symbol, err)
	}
	return nil
}

func (s *PostgresStore) LoadHolding(ctx context.Context, symbol string) (*folio.Holding, error) {
	var currency, quantity, avg, price, realized string
	err := s.pool.QueryRow(ctx,
		`SELECT currency, quantity::TEXT, average_cost::TEXT, price::TEXT, realized::TEXT
		 FROM holdings WHERE symbol = $1`, symbol).
		Scan(&currency, &quantity, &avg, &price, &realized)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load holding %s: %w", symbol, err)
	}
	h := &folio.Holding{Symbol: symbol}
	if h.Quantity, err = folio.ParseQuantity(quantity); err != nil {
		return nil, err
	}
	if h.AverageCost, err = folio.ParseMoney(avg, currency); err != nil {
		return nil, err
	}
	if h.Price, err = folio.ParseMoney(price, currency); err != nil {
		return nil, err
	}
	if h.Realized, err = folio.ParseMoney(realized, currency); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *PostgresStore) DeleteHolding(ctx context.Context, symbol string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM holdings WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("delete holding %s: %w", symbol, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
