// Package cmd implements the pft command line: recording trades, reporting
// positions, watching prices and running DCA plans.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/activity"
	"github.com/etnz/folio/alert"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/dca"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/store"
	"github.com/etnz/folio/tracker"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups() {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

type group struct {
	name     string
	commands []subcommands.Command
}

func groups() []group {
	return []group{
		{"transactions", []subcommands.Command{&buyCmd{}, &sellCmd{}, &dividendCmd{}, &feeCmd{}, &rmCmd{}, &undoCmd{}}},
		{"reports", []subcommands.Command{&txCmd{}, &holdingCmd{}, &portfolioCmd{}, &statsCmd{}, &rebalanceCmd{}, &exportCmd{}, &logCmd{}}},
		{"market", []subcommands.Command{&quoteCmd{}, &fxCmd{}, &alertAddCmd{}, &alertRmCmd{}, &alertsCmd{}}},
		{"dca", []subcommands.Command{&dcaAddCmd{}, &dcaRmCmd{}, &dcaCmd{}, &dcaRunCmd{}}},
		{"server", []subcommands.Command{&serveCmd{}}},
		{"help", []subcommands.Command{&topicCmd{}}},
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "", "Path to the ledger file containing transactions (JSONL format). Overrides FOLIO_LEDGER_FILE")
var defaultCurrency = flag.String("currency", "", "Reporting currency. Overrides FOLIO_CURRENCY")

// Verbose enables debug logs.
var Verbose = flag.Bool("v", false, "verbose logging")

// cfg is the configuration of the running command.
var cfg = defaultConfig()

// stdout receives the reports.
var stdout io.Writer = os.Stdout

func defaultConfig() *config.Config {
	return &config.Config{
		Currency: "USD",
		StateDir: ".folio",
		Store:    config.Store{Kind: config.StoreFile, LedgerFile: "transactions.jsonl"},
		Market:   config.Market{Provider: config.MarketMock, PricePath: "$.price", Timeout: 10 * time.Second},
		HTTP:     config.HTTP{Addr: ":8080"},
		Jobs:     config.Jobs{DCAInterval: time.Hour},
	}
}

// Configure sets the configuration of the commands. Global flags, once
// parsed, take precedence over c.
func Configure(c *config.Config) {
	if *ledgerFile != "" {
		c.Store.LedgerFile = *ledgerFile
	}
	if *defaultCurrency != "" {
		c.Currency = strings.ToUpper(*defaultCurrency)
	}
	cfg = c
}

// app holds the services opened for one command.
type app struct {
	store    store.Store
	quoter   market.Quoter
	rates    market.Rater
	activity *activity.Log
	tracker  *tracker.Service
}

// openApp opens the store and the activity log. With quotes, holdings are
// valued at the current market price instead of their last trade price.
func openApp(ctx context.Context, quotes bool) (*app, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Kind, err)
	}
	q, err := market.New(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	log, err := activity.Open(cfg.StatePath("activity.json"))
	if err != nil {
		s.Close()
		return nil, err
	}
	rates, err := market.NewRater(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	a := &app{store: s, quoter: q, rates: rates, activity: log}
	var valuation market.Quoter
	if quotes {
		valuation = q
	}
	a.tracker = tracker.New(s, valuation, log, cfg.Currency).WithRates(rates)
	return a, nil
}

func (a *app) Close() error { return a.store.Close() }

func openAlerts() (*alert.Book, error) { return alert.Open(cfg.StatePath("alerts.json")) }

func openPlans() (*dca.Book, error) { return dca.Open(cfg.StatePath("dca.json")) }

// printMarkdown renders md for the terminal, or prints it as is if it
// cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	fmt.Fprint(stdout, md)
}

// notify prints a notification on stderr.
func notify(n alert.Notification) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Kind(), n.Message())
}

// reportError prints err on stderr, with a notification when err is one.
func reportError(action string, err error) subcommands.ExitStatus {
	if n, ok := alert.FromError(err); ok {
		notify(n)
	}
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	return subcommands.ExitFailure
}

// parseTime returns the instant of a transaction on day s: now for today,
// noon otherwise.
func parseTime(s string) (time.Time, error) {
	day, err := date.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	if day == date.Today() {
		return time.Now(), nil
	}
	return day.At(12, time.Local), nil
}

// parseDecimal parses an optional decimal flag.
func parseDecimal(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid -%s %q: %w", name, s, err)
	}
	return d, nil
}

// money parses an amount flag in the given currency, or the default one.
func money(name, s, currency string) (folio.Money, error) {
	d, err := parseDecimal(name, s)
	if err != nil {
		return folio.Money{}, err
	}
	if currency == "" {
		currency = cfg.Currency
	}
	return folio.M(d, strings.ToUpper(currency)), nil
}
