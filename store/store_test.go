package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/etnz/folio"
)

func at(d, h int) time.Time { return time.Date(2025, time.March, d, h, 0, 0, 0, time.UTC) }

func usd(v float64) folio.Money { return folio.M(v, "USD") }

// testStore exercises the Store contract on an empty store.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	b1 := folio.NewBuy(at(2, 10), "AAPL", folio.Q(10), usd(100), usd(1))
	b2 := folio.NewBuy(at(1, 10), "GOOG", folio.Q(1.5), usd(150.25), folio.Money{})
	s1 := folio.NewSell(at(3, 10), "AAPL", folio.Q(4), usd(120), folio.Money{})
	b3 := folio.NewBuy(at(1, 9), "AAPL", folio.Q(2), usd(90), folio.Money{})
	b3.Note = "first"

	t.Run("empty", func(t *testing.T) {
		txs, err := s.AllTransactions(ctx)
		if err != nil || len(txs) != 0 {
			t.Fatalf("AllTransactions() = %v, %v, want empty", txs, err)
		}
		h, err := s.LoadHolding(ctx, "AAPL")
		if err != nil || h != nil {
			t.Fatalf("LoadHolding() = %v, %v, want nil, nil", h, err)
		}
	})

	for _, tx := range []folio.Transaction{b1, b2, s1, b3} {
		if err := s.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("AppendTransaction(%v) error = %v", tx, err)
		}
	}

	t.Run("load by symbol in time order", func(t *testing.T) {
		got, err := s.LoadTransactions(ctx, "AAPL")
		if err != nil {
			t.Fatalf("LoadTransactions() error = %v", err)
		}
		if diff := cmp.Diff([]folio.Transaction{b3, b1, s1}, got); diff != "" {
			t.Errorf("LoadTransactions() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("load all in time order", func(t *testing.T) {
		got, err := s.AllTransactions(ctx)
		if err != nil {
			t.Fatalf("AllTransactions() error = %v", err)
		}
		if diff := cmp.Diff([]folio.Transaction{b3, b2, b1, s1}, got); diff != "" {
			t.Errorf("AllTransactions() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("remove", func(t *testing.T) {
		got, err := s.RemoveTransaction(ctx, s1.ID)
		if err != nil {
			t.Fatalf("RemoveTransaction() error = %v", err)
		}
		if !got.Equal(s1) {
			t.Errorf("RemoveTransaction() = %v, want %v", got, s1)
		}
		txs, err := s.LoadTransactions(ctx, "AAPL")
		if err != nil || len(txs) != 2 {
			t.Errorf("LoadTransactions() = %v, %v, want 2 transactions", txs, err)
		}
		if _, err := s.RemoveTransaction(ctx, s1.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("RemoveTransaction() twice error = %v, want ErrNotFound", err)
		}
	})

	t.Run("holdings", func(t *testing.T) {
		h, err := folio.Replay([]folio.Transaction{b3, b1}, usd(130))
		if err != nil {
			t.Fatalf("Replay() error = %v", err)
		}
		if err := s.SaveHolding(ctx, *h); err != nil {
			t.Fatalf("SaveHolding() error = %v", err)
		}
		got, err := s.LoadHolding(ctx, "AAPL")
		if err != nil || got == nil {
			t.Fatalf("LoadHolding() = %v, %v", got, err)
		}
		if diff := cmp.Diff(*h, *got); diff != "" {
			t.Errorf("LoadHolding() mismatch (-want +got):\n%s", diff)
		}

		h.Price = usd(140)
		if err := s.SaveHolding(ctx, *h); err != nil {
			t.Fatalf("SaveHolding() error = %v", err)
		}
		if got, _ := s.LoadHolding(ctx, "AAPL"); got == nil || !got.Price.Equal(usd(140)) {
			t.Errorf("LoadHolding() after update = %v", got)
		}

		if err := s.DeleteHolding(ctx, "AAPL"); err != nil {
			t.Fatalf("DeleteHolding() error = %v", err)
		}
		if got, err := s.LoadHolding(ctx, "AAPL"); err != nil || got != nil {
			t.Errorf("LoadHolding() after delete = %v, %v", got, err)
		}
		if err := s.DeleteHolding(ctx, "AAPL"); err != nil {
			t.Errorf("DeleteHolding() twice error = %v", err)
		}
	})

	t.Run("same time keeps insertion order", func(t *testing.T) {
		// entered for a past day, all at the same instant
		noon := at(5, 12)
		want := []folio.Transaction{
			folio.NewBuy(noon, "MSFT", folio.Q(10), usd(300), folio.Money{}),
			folio.NewSell(noon, "MSFT", folio.Q(4), usd(310), folio.Money{}),
			folio.NewBuy(noon, "MSFT", folio.Q(1), usd(305), folio.Money{}),
			folio.NewSell(noon, "MSFT", folio.Q(7), usd(320), folio.Money{}),
			folio.NewDividend(noon, "MSFT", folio.Q(3), usd(2)),
		}
		for _, tx := range want {
			if err := s.AppendTransaction(ctx, tx); err != nil {
				t.Fatalf("AppendTransaction(%v) error = %v", tx, err)
			}
		}
		got, err := s.LoadTransactions(ctx, "MSFT")
		if err != nil {
			t.Fatalf("LoadTransactions() error = %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("LoadTransactions() mismatch (-want +got):\n%s", diff)
		}
		all, err := s.AllTransactions(ctx)
		if err != nil {
			t.Fatalf("AllTransactions() error = %v", err)
		}
		if diff := cmp.Diff(want, all[len(all)-len(want):]); diff != "" {
			t.Errorf("AllTransactions() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	s := NewMemoryStore()
	tx := folio.NewBuy(at(1, 0), "AAPL", folio.Q(1), usd(1), folio.Money{})
	if err := s.AppendTransaction(context.Background(), tx); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendTransaction(context.Background(), tx); err == nil {
		t.Error("AppendTransaction() accepted a duplicate ID")
	}
}
