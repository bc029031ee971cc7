package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2/predict"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// setup points the commands to an empty ledger in a temporary directory and
// returns what they print on stdout.
func setup(t *testing.T) *bytes.Buffer {
	t.Helper()
	dir := t.TempDir()
	c := defaultConfig()
	c.StateDir = filepath.Join(dir, ".folio")
	c.Store.LedgerFile = filepath.Join(dir, "transactions.jsonl")

	oldCfg, oldStdout := cfg, stdout
	var out bytes.Buffer
	cfg, stdout = c, &out
	t.Cleanup(func() { cfg, stdout = oldCfg, oldStdout })
	return &out
}

// run parses args for cmd and executes it.
func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parsing %s %v: %v", cmd.Name(), args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func mustRun(t *testing.T, cmd subcommands.Command, args ...string) {
	t.Helper()
	if status := run(t, cmd, args...); status != subcommands.ExitSuccess {
		t.Fatalf("%s %v = %v, want success", cmd.Name(), args, status)
	}
}

func ledger(t *testing.T) []folio.Transaction {
	t.Helper()
	a, err := openApp(context.Background(), false)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()
	txs, err := a.tracker.Transactions(context.Background(), "")
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	return txs
}

func holding(t *testing.T, symbol string) *folio.Holding {
	t.Helper()
	a, err := openApp(context.Background(), false)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close()
	h, err := a.tracker.Holding(context.Background(), symbol)
	if err != nil {
		t.Fatalf("Holding(%q) error = %v", symbol, err)
	}
	return h
}

func TestBuySell(t *testing.T) {
	out := setup(t)

	mustRun(t, &buyCmd{}, "-s", "aapl", "-q", "10", "-p", "150", "-d", "2025-01-02")
	mustRun(t, &sellCmd{}, "-s", "AAPL", "-q", "4", "-p", "160", "-d", "2025-02-03", "-m", "trim")

	h := holding(t, "AAPL")
	if got := h.Quantity.String(); got != "6" {
		t.Errorf("quantity = %s, want 6", got)
	}
	if !h.AverageCost.Decimal().Equal(decimal.NewFromInt(150)) {
		t.Errorf("average cost = %s, want 150", h.AverageCost)
	}
	if !h.Realized.Decimal().Equal(decimal.NewFromInt(40)) {
		t.Errorf("realized = %s, want 40", h.Realized)
	}

	out.Reset()
	mustRun(t, &txCmd{}, "-s", "aapl")
	if !strings.Contains(out.String(), "AAPL") {
		t.Errorf("tx output does not list AAPL:\n%s", out)
	}
}

func TestSell_Oversell(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "150", "-d", "2025-01-02")

	if status := run(t, &sellCmd{}, "-s", "AAPL", "-q", "20", "-p", "160", "-d", "2025-02-03"); status != subcommands.ExitFailure {
		t.Errorf("oversell = %v, want failure", status)
	}
	if got := len(ledger(t)); got != 1 {
		t.Errorf("ledger has %d transactions, want 1", got)
	}
}

func TestSell_All(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-s", "ETH", "-q", "1.5", "-p", "2000", "-d", "2025-01-02")
	mustRun(t, &sellCmd{}, "-s", "ETH", "-p", "2100", "-d", "2025-01-03")

	txs := ledger(t)
	if len(txs) != 2 {
		t.Fatalf("ledger has %d transactions, want 2", len(txs))
	}
	if got := txs[1].Quantity.String(); got != "1.5" {
		t.Errorf("sold %s, want 1.5", got)
	}
	if !holding(t, "ETH").Quantity.IsZero() {
		t.Errorf("ETH still held after selling all")
	}
}

func TestBuy_MissingFlags(t *testing.T) {
	setup(t)
	if status := run(t, &buyCmd{}, "-s", "AAPL", "-p", "150"); status != subcommands.ExitUsageError {
		t.Errorf("buy without -q = %v, want usage error", status)
	}
}

func TestRemoveAndUndo(t *testing.T) {
	out := setup(t)
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "150", "-d", "2025-01-02")
	mustRun(t, &dividendCmd{}, "-s", "AAPL", "-q", "10", "-p", "0.25", "-d", "2025-03-01")

	txs := ledger(t)
	mustRun(t, &rmCmd{}, txs[1].ID)
	if got := len(ledger(t)); got != 1 {
		t.Fatalf("after rm, ledger has %d transactions, want 1", got)
	}

	// restores the dividend
	mustRun(t, &undoCmd{})
	if got := len(ledger(t)); got != 2 {
		t.Fatalf("after undo, ledger has %d transactions, want 2", got)
	}
	if !holding(t, "AAPL").Realized.Decimal().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("dividend not restored")
	}

	out.Reset()
	mustRun(t, &logCmd{})
	if !strings.Contains(out.String(), "removed") {
		t.Errorf("log does not show the removal:\n%s", out)
	}
}

func TestExport_CSV(t *testing.T) {
	out := setup(t)
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "150", "-d", "2025-01-02")

	out.Reset()
	mustRun(t, &exportCmd{}, "-format", "csv")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"Symbol,Quantity,Average Cost,Price,Value,Profit,Profit %,Weight %,Realized,Currency",
		"AAPL,10,150.00,150.00,1500.00,0.00,0.00,100.00,0.00,USD",
	}
	if len(lines) != 3 {
		t.Fatalf("export has %d lines, want 3:\n%s", len(lines), out)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
	if !strings.HasPrefix(lines[2], "TOTAL,") {
		t.Errorf("last line = %q, want the total", lines[2])
	}
}

func TestExport_XLSX(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "150", "-d", "2025-01-02")

	name := filepath.Join(t.TempDir(), "out.xlsx")
	mustRun(t, &exportCmd{}, "-format", "xlsx", "-o", name)
	if fi, err := os.Stat(name); err != nil || fi.Size() == 0 {
		t.Errorf("workbook not written: %v", err)
	}
}

func TestParseTargets(t *testing.T) {
	targets, err := parseTargets([]string{"btc=60", "AAPL=40"})
	if err != nil {
		t.Fatalf("parseTargets() error = %v", err)
	}
	if targets["BTC"] != 60 || targets["AAPL"] != 40 {
		t.Errorf("parseTargets() = %v", targets)
	}
	for _, bad := range []string{"BTC", "BTC=x", "BTC=-1"} {
		if _, err := parseTargets([]string{bad}); err == nil {
			t.Errorf("parseTargets(%q) succeeded, want error", bad)
		}
	}
}

func TestDCA(t *testing.T) {
	setup(t)
	mustRun(t, &dcaAddCmd{}, "-s", "btc", "-every", "weekly", "-cash", "100", "-start", "2025-01-06")

	book, err := openPlans()
	if err != nil {
		t.Fatal(err)
	}
	plans := book.List()
	if len(plans) != 1 || plans[0].Symbol != "BTC" {
		t.Fatalf("plans = %+v, want one BTC plan", plans)
	}

	mustRun(t, &dcaRunCmd{}, "-d", "2025-01-06")
	txs := ledger(t)
	if len(txs) != 1 || txs[0].Symbol != "BTC" || txs[0].Side != folio.Buy {
		t.Fatalf("ledger = %v, want one BTC buy", txs)
	}

	book, err = openPlans()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := book.List()[0].NextRun, date.New(2025, 1, 13); got != want {
		t.Errorf("next run = %s, want %s", got, want)
	}

	// not due anymore
	mustRun(t, &dcaRunCmd{}, "-d", "2025-01-06")
	if got := len(ledger(t)); got != 1 {
		t.Errorf("ledger has %d transactions after a second run, want 1", got)
	}

	mustRun(t, &dcaRmCmd{}, plans[0].ID)
	book, err = openPlans()
	if err != nil {
		t.Fatal(err)
	}
	if n := len(book.List()); n != 0 {
		t.Errorf("%d plans left, want 0", n)
	}
}

func TestDCAAdd_Invalid(t *testing.T) {
	setup(t)
	for _, args := range [][]string{
		{"-s", "BTC", "-every", "weekly"},
		{"-s", "BTC", "-every", "weekly", "-cash", "1", "-units", "1"},
		{"-s", "BTC", "-every", "daily", "-cash", "100"},
		{"-s", "BTC", "-every", "weekly", "-cash", "0"},
	} {
		if status := run(t, &dcaAddCmd{}, args...); status != subcommands.ExitUsageError {
			t.Errorf("dca-add %v = %v, want usage error", args, status)
		}
	}
}

func TestAlerts(t *testing.T) {
	out := setup(t)
	mustRun(t, &alertAddCmd{}, "-s", "btc", "-above", "1", "-m", "moon")

	book, err := openAlerts()
	if err != nil {
		t.Fatal(err)
	}
	alerts := book.List()
	if len(alerts) != 1 || alerts[0].Symbol != "BTC" {
		t.Fatalf("alerts = %+v, want one BTC alert", alerts)
	}

	out.Reset()
	mustRun(t, &alertsCmd{}, "-check")
	if !strings.Contains(out.String(), "BTC") {
		t.Errorf("alerts output does not list BTC:\n%s", out)
	}

	mustRun(t, &alertRmCmd{}, alerts[0].ID)
	if status := run(t, &alertRmCmd{}, alerts[0].ID); status != subcommands.ExitFailure {
		t.Errorf("removing twice = %v, want failure", status)
	}
}

func TestAlertAdd_Invalid(t *testing.T) {
	setup(t)
	for _, args := range [][]string{
		{"-s", "BTC"},
		{"-s", "BTC", "-above", "1", "-below", "2"},
		{"-s", "BTC", "-above", "-1"},
	} {
		if status := run(t, &alertAddCmd{}, args...); status != subcommands.ExitUsageError {
			t.Errorf("alert-add %v = %v, want usage error", args, status)
		}
	}
}

func TestCompletion(t *testing.T) {
	setup(t)
	mustRun(t, &buyCmd{}, "-s", "GOLD", "-q", "1", "-p", "2000", "-d", "2025-01-02")

	root := Completion(cfg)
	buy, ok := root.Sub["buy"]
	if !ok {
		t.Fatal("no completion for buy")
	}
	s, ok := buy.Flags["s"]
	if !ok {
		t.Fatal("no completion for buy -s")
	}
	if got := s.Predict(""); len(got) != 1 || got[0] != "GOLD" {
		t.Errorf("buy -s predicts %v, want [GOLD]", got)
	}
	if _, ok := root.Sub["dca-add"].Flags["every"].(predict.Set); !ok {
		t.Errorf("dca-add -every is not predicted from a set")
	}
	if _, ok := root.Sub["serve"]; !ok {
		t.Errorf("no completion for serve")
	}
}

func TestFX(t *testing.T) {
	out := setup(t)

	mustRun(t, &fxCmd{}, "usd", "eur", "100")
	if !strings.Contains(out.String(), "0.85") {
		t.Errorf("fx output does not show the USD to EUR rate:\n%s", out)
	}
	if status := run(t, &fxCmd{}, "USD", "XAU"); status != subcommands.ExitFailure {
		t.Errorf("fx to an unknown currency = %v, want failure", status)
	}
	if status := run(t, &fxCmd{}, "USD", "EUR", "ten"); status != subcommands.ExitUsageError {
		t.Errorf("fx with an invalid amount = %v, want usage error", status)
	}
	if status := run(t, &fxCmd{}, "USD"); status != subcommands.ExitUsageError {
		t.Errorf("fx without a target = %v, want usage error", status)
	}
}

func TestPortfolio_Currency(t *testing.T) {
	out := setup(t)
	mustRun(t, &buyCmd{}, "-s", "AAPL", "-q", "10", "-p", "100", "-d", "2025-01-02")

	mustRun(t, &portfolioCmd{}, "-c", "eur")
	if !strings.Contains(out.String(), "850") {
		t.Errorf("portfolio in EUR does not show 850:\n%s", out)
	}
	if status := run(t, &portfolioCmd{}, "-c", "XAU"); status != subcommands.ExitFailure {
		t.Errorf("portfolio in an unknown currency = %v, want failure", status)
	}
}
