package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/etnz/folio/report"
)

// --- Transactions Command ---

type txCmd struct {
	symbol string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions in the ledger" }
func (*txCmd) Usage() string {
	return `pft tx [-s <symbol>] [-head <n>] [-tail <n>]

  Lists transactions from the ledger in time order, with options for
  filtering and limiting the output.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Only list the transactions of this symbol")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	txs, err := a.tracker.Transactions(ctx, c.symbol)
	if err != nil {
		return reportError("loading transactions", err)
	}
	if c.head > 0 && len(txs) > c.head {
		txs = txs[:c.head]
	}
	if c.tail > 0 && len(txs) > c.tail {
		txs = txs[len(txs)-c.tail:]
	}
	title := "Transactions"
	if c.symbol != "" {
		title = folio.NormalizeSymbol(c.symbol) + " Transactions"
	}
	printMarkdown(renderer.Transactions(title, txs))
	return subcommands.ExitSuccess
}

// --- Holding Command ---

type holdingCmd struct {
	update bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the position held in a symbol" }
func (*holdingCmd) Usage() string {
	return `pft holding [-u] <symbol>...

  Displays quantity, average cost, value and gains of each symbol.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "value the holding at the latest market price instead of the last trade price")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, c.update)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for _, symbol := range f.Args() {
		h, err := a.tracker.Holding(ctx, symbol)
		if err != nil {
			return reportError("reading holding", err)
		}
		printMarkdown(renderer.Holding(*h))
	}
	return subcommands.ExitSuccess
}

// --- Portfolio Command ---

type portfolioCmd struct {
	update   bool
	currency string
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "display the portfolio totals and open holdings" }
func (*portfolioCmd) Usage() string {
	return `pft portfolio [-u] [-c <currency>]

  Displays the value, cost and gains of the whole portfolio, and the
  weight of each open holding. Holdings in another currency than the
  reporting one are converted at the current exchange rate.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "value holdings at the latest market price instead of the last trade price")
	f.StringVar(&c.currency, "c", "", "Report in this currency instead of FOLIO_CURRENCY")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, c.update)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	currency := cfg.Currency
	if c.currency != "" {
		currency = strings.ToUpper(c.currency)
	}
	p, err := a.tracker.PortfolioIn(ctx, currency)
	if err != nil {
		return reportError("computing portfolio", err)
	}
	printMarkdown(renderer.Portfolio(p))
	return subcommands.ExitSuccess
}

// --- Stats Command ---

type statsCmd struct {
	symbol string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "count transactions and sum flows by side" }
func (*statsCmd) Usage() string {
	return `pft stats [-s <symbol>]

  Displays the number of transactions by side, and the amounts bought,
  sold, received as dividends and paid as fees.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Only count the transactions of this symbol")
}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	txs, err := a.tracker.Transactions(ctx, c.symbol)
	if err != nil {
		return reportError("loading transactions", err)
	}
	printMarkdown(renderer.Stats(folio.Stats(cfg.Currency, txs)))
	return subcommands.ExitSuccess
}

// --- Rebalance Command ---

type rebalanceCmd struct {
	update bool
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "compare holdings to target weights" }
func (*rebalanceCmd) Usage() string {
	return `pft rebalance [-u] <symbol>=<weight>...

  Suggests what to buy or sell to reach the target weights, e.g.
  pft rebalance BTC=60 AAPL=40. Weights that do not sum to 100 are scaled.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "value holdings at the latest market price")
}

// parseTargets parses SYMBOL=weight arguments.
func parseTargets(args []string) (map[string]folio.Percent, error) {
	targets := make(map[string]folio.Percent, len(args))
	for _, arg := range args {
		symbol, weight, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid target %q, want <symbol>=<weight>", arg)
		}
		w, err := decimal.NewFromString(weight)
		if err != nil || w.IsNegative() {
			return nil, fmt.Errorf("invalid weight %q for %s", weight, symbol)
		}
		targets[folio.NormalizeSymbol(symbol)] = folio.Percent(w.InexactFloat64())
	}
	return targets, nil
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	targets, err := parseTargets(f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, c.update)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.tracker.Portfolio(ctx)
	if err != nil {
		return reportError("computing portfolio", err)
	}
	printMarkdown(renderer.Rebalance(folio.Rebalance(p.Open(), targets)))
	return subcommands.ExitSuccess
}

// --- Export Command ---

type exportCmd struct {
	format string
	output string
	update bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the portfolio or the ledger as CSV or Excel" }
func (*exportCmd) Usage() string {
	return `pft export [-format csv|transactions|xlsx] [-o <file>] [-u]

  Exports the open holdings (csv), the ledger (transactions) or both in a
  workbook (xlsx). Without -o, csv formats go to stdout and workbooks to
  portfolio-<date>.xlsx.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "csv", "Export format: csv, transactions or xlsx")
	f.StringVar(&c.output, "o", "", "Output file")
	f.BoolVar(&c.update, "u", false, "value holdings at the latest market price")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "csv" && c.format != "transactions" && c.format != "xlsx" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.format == "xlsx" && c.output == "" {
		c.output = fmt.Sprintf("portfolio-%s.xlsx", time.Now().Format(time.DateOnly))
	}

	a, err := openApp(ctx, c.update)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var w io.Writer = stdout
	if c.output != "" {
		file, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	switch c.format {
	case "csv":
		p, err := a.tracker.Portfolio(ctx)
		if err == nil {
			err = report.WriteCSV(w, p)
		}
		if err != nil {
			return reportError("exporting portfolio", err)
		}
	case "transactions":
		txs, err := a.tracker.Transactions(ctx, "")
		if err == nil {
			err = report.WriteTransactionsCSV(w, txs)
		}
		if err != nil {
			return reportError("exporting transactions", err)
		}
	case "xlsx":
		p, err := a.tracker.Portfolio(ctx)
		if err != nil {
			return reportError("computing portfolio", err)
		}
		txs, err := a.tracker.Transactions(ctx, "")
		if err != nil {
			return reportError("loading transactions", err)
		}
		if err := report.WriteXLSX(w, p, txs); err != nil {
			return reportError("exporting workbook", err)
		}
	}
	if c.output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", c.output)
	}
	return subcommands.ExitSuccess
}

// --- Log Command ---

type logCmd struct {
	n     int
	clear bool
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "display the recent activity" }
func (*logCmd) Usage() string {
	return `pft log [-n <count>] [-clear]

  Displays the most recent actions, newest first, and whether they can
  still be undone.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 20, "Number of records to show, 0 for all")
	f.BoolVar(&c.clear, "clear", false, "Clear the activity log")
}

func (c *logCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.clear {
		if err := a.activity.Clear(); err != nil {
			return reportError("clearing the activity log", err)
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.Activity(a.activity.Recent(c.n)))
	return subcommands.ExitSuccess
}
