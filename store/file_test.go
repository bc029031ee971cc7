package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/folio"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	testStore(t, NewFileStore(filepath.Join(dir, "transactions.jsonl"), filepath.Join(dir, "state", "holdings.json")))
}

func TestFileStore_LedgerIsJSONL(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "transactions.jsonl")
	s := NewFileStore(ledger, filepath.Join(dir, "holdings.json"))
	ctx := context.Background()

	b := folio.NewBuy(at(1, 0), "BTC", folio.Q(0.5), usd(40000), folio.Money{})
	f := folio.NewFee(at(2, 0), "BTC", usd(3))
	for _, tx := range []folio.Transaction{b, f} {
		if err := s.AppendTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(ledger)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"side":"buy"`) || !strings.Contains(lines[1], `"side":"fee"`) {
		t.Errorf("ledger content:\n%s", data)
	}

	if _, err := s.RemoveTransaction(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(ledger)
	if strings.Contains(string(data), b.ID) || !strings.Contains(string(data), f.ID) {
		t.Errorf("ledger after remove:\n%s", data)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestFileStore_CorruptLedger(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "transactions.jsonl")
	if err := os.WriteFile(ledger, []byte("{oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(ledger, filepath.Join(dir, "holdings.json"))
	if _, err := s.AllTransactions(context.Background()); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("AllTransactions() error = %v, want a line 1 error", err)
	}
}
