package store

import (
	"context"
	"os"
	"testing"
)

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("FOLIO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FOLIO_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.pool.Exec(ctx, `TRUNCATE transactions, holdings`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	testStore(t, s)

	// migrating twice is a no-op.
	if err := Migrate(s.pool); err != nil {
		t.Errorf("Migrate() error = %v", err)
	}
}
