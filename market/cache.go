package market

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/folio/date"
)

// diskCache is a transport keeping successful responses on disk for the
// rest of the day.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date
}

func newDiskCache(dir string) *diskCache {
	return &diskCache{base: http.DefaultTransport, dir: dir, today: date.Today}
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.base.RoundTrip(req)
	}
	key := fmt.Sprintf("%x", sha1.Sum([]byte(c.today().String()+" "+req.URL.String())))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	slog.Debug("market api", slog.String("method", req.Method), slog.String("path", req.URL.Path), slog.String("status", resp.Status))
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		slog.Warn("cache write failed", slog.String("err", err.Error()))
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores resp and leaves its body readable.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}
