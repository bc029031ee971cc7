package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/etnz/folio"
	"github.com/etnz/folio/internal/jsonfile"
)

// FileStore keeps the ledger in a JSONL file, one transaction per line, and
// the holding snapshots in a JSON file.
type FileStore struct {
	mu       sync.Mutex
	ledger   string
	holdings string
}

func NewFileStore(ledger, holdings string) *FileStore {
	return &FileStore{ledger: ledger, holdings: holdings}
}

func (s *FileStore) AppendTransaction(_ context.Context, tx folio.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.ledger), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.ledger, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open ledger file %q: %w", s.ledger, err)
	}
	if err := folio.EncodeTransaction(f, tx); err != nil {
		f.Close()
		return fmt.Errorf("could not append to ledger %q: %w", s.ledger, err)
	}
	return f.Close()
}

// read returns the ledger in file order. A missing file is an empty ledger.
func (s *FileStore) read() ([]folio.Transaction, error) {
	f, err := os.Open(s.ledger)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open ledger file %q: %w", s.ledger, err)
	}
	defer f.Close()
	txs, err := folio.DecodeTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger %q: %w", s.ledger, err)
	}
	return txs, nil
}

func (s *FileStore) LoadTransactions(_ context.Context, symbol string) ([]folio.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.read()
	if err != nil {
		return nil, err
	}
	var selected []folio.Transaction
	for _, tx := range txs {
		if tx.Symbol == symbol {
			selected = append(selected, tx)
		}
	}
	return folio.Sorted(selected), nil
}

func (s *FileStore) AllTransactions(_ context.Context) ([]folio.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.read()
	if err != nil {
		return nil, err
	}
	return folio.Sorted(txs), nil
}

func (s *FileStore) RemoveTransaction(_ context.Context, id string) (folio.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.read()
	if err != nil {
		return folio.Transaction{}, err
	}
	for i, tx := range txs {
		if tx.ID != id {
			continue
		}
		kept := append(txs[:i:i], txs[i+1:]...)
		err := jsonfile.WriteAtomic(s.ledger, func(w io.Writer) error {
			return folio.EncodeTransactions(w, kept)
		})
		return tx, err
	}
	return folio.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (s *FileStore) readHoldings() (map[string]folio.Holding, error) {
	holdings := make(map[string]folio.Holding)
	if err := jsonfile.Read(s.holdings, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

func (s *FileStore) writeHoldings(holdings map[string]folio.Holding) error {
	return jsonfile.Write(s.holdings, holdings)
}

func (s *FileStore) SaveHolding(_ context.Context, h folio.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	holdings, err := s.readHoldings()
	if err != nil {
		return err
	}
	holdings[h.Symbol] = h
	return s.writeHoldings(holdings)
}

func (s *FileStore) LoadHolding(_ context.Context, symbol string) (*folio.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holdings, err := s.readHoldings()
	if err != nil {
		return nil, err
	}
	h, ok := holdings[symbol]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *FileStore) DeleteHolding(_ context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	holdings, err := s.readHoldings()
	if err != nil {
		return err
	}
	if _, ok := holdings[symbol]; !ok {
		return nil
	}
	delete(holdings, symbol)
	return s.writeHoldings(holdings)
}

func (s *FileStore) Close() error { return nil }
