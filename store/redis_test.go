package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("FOLIO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FOLIO_TEST_REDIS_URL not set")
	}
	s, err := OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	// isolate runs sharing a server.
	s.prefix = "folio-test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := s.rdb.Keys(ctx, s.prefix+":*").Result()
		if len(keys) > 0 {
			s.rdb.Del(ctx, keys...)
		}
		s.Close()
	})
	testStore(t, s)
}
