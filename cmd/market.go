package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/activity"
	"github.com/etnz/folio/alert"
	"github.com/etnz/folio/market"
	"github.com/etnz/folio/renderer"
)

// --- Quote Command ---

type quoteCmd struct {
	search string
	watch  time.Duration
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "display market prices" }
func (*quoteCmd) Usage() string {
	return `pft quote [-watch <duration>] <symbol>...
pft quote -search <query>

  Displays the current price of symbols, or searches the provider's
  catalogue. With -watch, prints every tick for that long and raises the
  price alerts it triggers.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.search, "search", "", "Search symbols by name or ticker")
	f.DurationVar(&c.watch, "watch", 0, "Stream prices for this long (e.g. 30s)")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	q, err := market.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.search != "" {
		s, ok := q.(market.Searcher)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: the %s provider cannot search\n", cfg.Market.Provider)
			return subcommands.ExitFailure
		}
		results, err := s.Search(ctx, c.search)
		if err != nil {
			return reportError("searching", err)
		}
		printMarkdown(renderer.Search(c.search, results))
		return subcommands.ExitSuccess
	}

	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.watch > 0 {
		return c.stream(ctx, q, f.Args())
	}

	var quotes []market.Quote
	for _, symbol := range f.Args() {
		quote, err := q.Quote(ctx, folio.NormalizeSymbol(symbol))
		if err != nil {
			return reportError("quoting "+symbol, err)
		}
		quotes = append(quotes, quote)
	}
	printMarkdown(renderer.Quotes(quotes))
	return subcommands.ExitSuccess
}

// stream prints ticks and checks the alerts on every tick.
func (c *quoteCmd) stream(ctx context.Context, q market.Quoter, symbols []string) subcommands.ExitStatus {
	s, ok := q.(market.Streamer)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: the %s provider cannot stream\n", cfg.Market.Provider)
		return subcommands.ExitFailure
	}
	book, err := openAlerts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	alerts := book.List()

	ctx, cancel := context.WithTimeout(ctx, c.watch)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err = s.Stream(ctx, symbols, func(quote market.Quote) {
		fmt.Fprintf(stdout, "%s %-8s %s\n", quote.Time.Format(time.TimeOnly), quote.Symbol, quote.Price)
		for _, a := range alerts {
			if a.Enabled && a.Symbol == quote.Symbol && a.Triggered(quote.Price.Decimal()) {
				notify(alert.PriceAlert{Alert: a, Price: quote.Price})
			}
		}
	})
	if err != nil {
		return reportError("streaming quotes", err)
	}
	return subcommands.ExitSuccess
}

// --- FX Command ---

type fxCmd struct{}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "convert an amount between currencies" }
func (*fxCmd) Usage() string {
	return `pft fx <from> <to> [amount]

  Displays the exchange rate from one currency to another, and converts
  amount (1 by default) at that rate.
`
}

func (*fxCmd) SetFlags(*flag.FlagSet) {}

func (*fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 || f.NArg() > 3 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amount := "1"
	if f.NArg() == 3 {
		amount = f.Arg(2)
	}
	from, to := strings.ToUpper(f.Arg(0)), strings.ToUpper(f.Arg(1))
	m, err := folio.ParseMoney(amount, from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	r, err := market.NewRater(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rate, err := r.Rate(ctx, from, to)
	if err != nil {
		return reportError("fetching rate", err)
	}
	printMarkdown(renderer.Exchange(m, to, rate))
	return subcommands.ExitSuccess
}

// --- Alert Commands ---

type alertAddCmd struct {
	symbol string
	above  string
	below  string
	memo   string
}

func (*alertAddCmd) Name() string     { return "alert-add" }
func (*alertAddCmd) Synopsis() string { return "add a price alert" }
func (*alertAddCmd) Usage() string {
	return `pft alert-add -s <symbol> (-above <price> | -below <price>) [-m <note>]

  Adds an alert raised when the price reaches the target.
`
}

func (c *alertAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to watch")
	f.StringVar(&c.above, "above", "", "Raise the alert when the price is at or above this target")
	f.StringVar(&c.below, "below", "", "Raise the alert when the price is at or below this target")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *alertAddCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || (c.above == "") == (c.below == "") {
		f.Usage()
		return subcommands.ExitUsageError
	}
	dir, target := alert.Above, c.above
	if c.below != "" {
		dir, target = alert.Below, c.below
	}
	price, err := decimal.NewFromString(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing target %q: %v\n", target, err)
		return subcommands.ExitUsageError
	}
	a, err := alert.New(c.symbol, price, dir, c.memo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	book, err := openAlerts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := book.Add(a); err != nil {
		return reportError("saving alert", err)
	}
	logActivity(activity.AddAlert{AlertID: a.ID, Symbol: a.Symbol})
	fmt.Fprintf(os.Stderr, "Added alert %s (%s)\n", a, a.ID)
	return subcommands.ExitSuccess
}

type alertRmCmd struct{}

func (*alertRmCmd) Name() string     { return "alert-rm" }
func (*alertRmCmd) Synopsis() string { return "remove price alerts" }
func (*alertRmCmd) Usage() string {
	return `pft alert-rm <id>...
`
}

func (*alertRmCmd) SetFlags(*flag.FlagSet) {}

func (*alertRmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	book, err := openAlerts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, id := range f.Args() {
		a, err := book.Remove(id)
		if err != nil {
			return reportError("removing alert", err)
		}
		logActivity(activity.RemoveAlert{AlertID: a.ID, Symbol: a.Symbol})
		fmt.Fprintf(os.Stderr, "Removed alert %s\n", a)
	}
	return subcommands.ExitSuccess
}

type alertsCmd struct {
	check   bool
	enable  string
	disable string
}

func (*alertsCmd) Name() string     { return "alerts" }
func (*alertsCmd) Synopsis() string { return "list and check price alerts" }
func (*alertsCmd) Usage() string {
	return `pft alerts [-check] [-enable <id>] [-disable <id>]

  Lists the alerts. With -check, quotes their symbols and reports the
  triggered ones.
`
}

func (c *alertsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.check, "check", false, "Quote the symbols and report triggered alerts")
	f.StringVar(&c.enable, "enable", "", "Enable the alert with this ID")
	f.StringVar(&c.disable, "disable", "", "Disable the alert with this ID")
}

func (c *alertsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, err := openAlerts()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.enable != "" {
		if err := book.SetEnabled(c.enable, true); err != nil {
			return reportError("enabling alert", err)
		}
	}
	if c.disable != "" {
		if err := book.SetEnabled(c.disable, false); err != nil {
			return reportError("disabling alert", err)
		}
	}

	printMarkdown(renderer.Alerts(book.List()))

	if !c.check {
		return subcommands.ExitSuccess
	}
	q, err := market.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	notes, err := alert.Check(ctx, q, book.List())
	if err != nil {
		return reportError("checking alerts", err)
	}
	for _, n := range notes {
		notify(n)
	}
	if len(notes) == 0 {
		fmt.Fprintln(os.Stderr, "No alert triggered.")
	}
	return subcommands.ExitSuccess
}

// logActivity records e in the activity log. Failures are only reported:
// the action itself succeeded.
func logActivity(e activity.Entry) {
	log, err := activity.Open(cfg.StatePath("activity.json"))
	if err == nil {
		_, err = log.Add(e)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not log activity: %v\n", err)
	}
}
