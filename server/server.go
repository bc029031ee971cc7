// Package server exposes the tracker over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/metrics"
	"github.com/etnz/folio/store"
	"github.com/etnz/folio/tracker"
)

type Server struct {
	tracker  *tracker.Service
	currency string // of transactions posted without one
	now      func() time.Time
}

func New(t *tracker.Service, currency string) *Server {
	return &Server{tracker: t, currency: currency, now: time.Now}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/transactions", s.listTransactions)
		r.Post("/transactions", s.createTransaction)
		r.Delete("/transactions/{id}", s.deleteTransaction)
		r.Get("/holdings", s.listHoldings)
		r.Get("/holdings/{symbol}", s.getHolding)
		r.Get("/portfolio", s.getPortfolio)
		r.Get("/rebalance", s.rebalance)
	})
	return r
}

// Run serves h on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("folio api listening", slog.String("address", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("shutting down folio api")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type transactionRequest struct {
	Time     time.Time       `json:"time"` // defaults to now
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Currency string          `json:"currency"`
	Note     string          `json:"note,omitempty"`
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	side, err := folio.ParseSide(req.Side)
	if err != nil {
		writeErr(w, err)
		return
	}
	if req.Time.IsZero() {
		req.Time = s.now()
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}
	tx := folio.NewTransaction(req.Time, req.Symbol, side, folio.Q(req.Quantity),
		folio.M(req.Price, req.Currency), folio.M(req.Fee, req.Currency), req.Note)

	h, err := s.tracker.Record(r.Context(), tx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": tx,
		"holding":     newHoldingJSON(*h),
	})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.tracker.Transactions(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if txs == nil {
		txs = []folio.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.tracker.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) listHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.tracker.Holdings(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]holdingJSON, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, newHoldingJSON(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getHolding(w http.ResponseWriter, r *http.Request) {
	h, err := s.tracker.Holding(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newHoldingJSON(*h))
}

// getPortfolio totals in the service currency, or in ?currency=EUR.
func (s *Server) getPortfolio(w http.ResponseWriter, r *http.Request) {
	var (
		p   *folio.Portfolio
		err error
	)
	if cur := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency"))); cur != "" {
		p, err = s.tracker.PortfolioIn(r.Context(), cur)
	} else {
		p, err = s.tracker.Portfolio(r.Context())
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPortfolioJSON(p))
}

// rebalance reads the targets from the query: ?BTC=60&AAPL=40.
func (s *Server) rebalance(w http.ResponseWriter, r *http.Request) {
	targets := make(map[string]folio.Percent)
	for symbol, values := range r.URL.Query() {
		weight, err := decimal.NewFromString(values[0])
		if err != nil || weight.IsNegative() {
			writeError(w, fmt.Sprintf("invalid target weight %q for %s", values[0], symbol), http.StatusBadRequest)
			return
		}
		targets[folio.NormalizeSymbol(symbol)] = folio.Percent(weight.InexactFloat64())
	}
	if len(targets) == 0 {
		writeError(w, "no target weights, use ?SYMBOL=weight", http.StatusBadRequest)
		return
	}
	p, err := s.tracker.Portfolio(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	recs := folio.Rebalance(p.Open(), targets)
	out := make([]recommendationJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recommendationJSON{
			Symbol:     rec.Symbol,
			Current:    float64(rec.Current),
			Target:     float64(rec.Target),
			Value:      rec.Value.Decimal(),
			Difference: rec.Difference.Decimal(),
			Action:     string(rec.Action),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// status maps domain errors to HTTP status codes.
func status(err error) int {
	var (
		verr *folio.ValidationError
		ierr *folio.InsufficientHoldingError
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, market.ErrUnknownCurrency):
		return http.StatusBadRequest
	case errors.As(err, &ierr), errors.Is(err, folio.ErrNoHolding):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeErr(w http.ResponseWriter, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", slog.String("err", err.Error()))
	}
	writeError(w, err.Error(), code)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", slog.String("err", err.Error()))
	}
}
