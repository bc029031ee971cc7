package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/etnz/folio/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind string
		want string
	}{
		{config.StoreMemory, "*store.MemoryStore"},
		{config.StoreFile, "*store.FileStore"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := &config.Config{StateDir: dir, Store: config.Store{Kind: tt.kind, LedgerFile: filepath.Join(dir, "l.jsonl")}}
			s, err := Open(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()
			if got := fmt.Sprintf("%T", s); got != tt.want {
				t.Errorf("Open() = %s, want %s", got, tt.want)
			}
		})
	}
	if _, err := Open(context.Background(), &config.Config{Store: config.Store{Kind: "tape"}}); err == nil {
		t.Error("Open(tape) succeeded")
	}
}
