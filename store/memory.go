package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/etnz/folio"
)

// MemoryStore keeps everything in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	txs      []folio.Transaction // insertion order
	holdings map[string]folio.Holding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{holdings: make(map[string]folio.Holding)}
}

func (s *MemoryStore) AppendTransaction(_ context.Context, tx folio.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == tx.ID {
			return fmt.Errorf("transaction %s already exists", tx.ID)
		}
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *MemoryStore) LoadTransactions(_ context.Context, symbol string) ([]folio.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []folio.Transaction
	for _, tx := range s.txs {
		if tx.Symbol == symbol {
			txs = append(txs, tx)
		}
	}
	return folio.Sorted(txs), nil
}

func (s *MemoryStore) AllTransactions(_ context.Context) ([]folio.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return folio.Sorted(s.txs), nil
}

func (s *MemoryStore) RemoveTransaction(_ context.Context, id string) (folio.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i:i], s.txs[i+1:]...)
			return tx, nil
		}
	}
	return folio.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (s *MemoryStore) SaveHolding(_ context.Context, h folio.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[h.Symbol] = h
	return nil
}

func (s *MemoryStore) LoadHolding(_ context.Context, symbol string) (*folio.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holdings[symbol]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *MemoryStore) DeleteHolding(_ context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holdings, symbol)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
