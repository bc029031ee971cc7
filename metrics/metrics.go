// Package metrics provides Prometheus instrumentation for the tracker and
// its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results of a recorded transaction.
const (
	Accepted = "accepted"
	Rejected = "rejected"
)

var (
	// TransactionsTotal counts transactions submitted to the tracker, by side
	// and result.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_transactions_total",
		Help: "Total number of transactions submitted",
	}, []string{"side", "result"})

	// PortfolioValue is the market value of the open holdings, by currency,
	// as of the last valuation.
	PortfolioValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "folio_portfolio_value",
		Help: "Market value of the portfolio",
	}, []string{"currency"})

	// OpenHoldings tracks the number of open holdings.
	OpenHoldings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "folio_open_holdings",
		Help: "Number of currently open holdings",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "folio_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Transaction counts one submitted transaction.
func Transaction(side string, err error) {
	result := Accepted
	if err != nil {
		result = Rejected
	}
	TransactionsTotal.WithLabelValues(side, result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// The route pattern keeps symbols and IDs out of the labels.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
