package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/folio/activity"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/dca"
	"github.com/etnz/folio/renderer"
)

// --- DCA Add Command ---

type dcaAddCmd struct {
	symbol string
	every  string
	cash   string
	units  string
	start  string
	memo   string
}

func (*dcaAddCmd) Name() string     { return "dca-add" }
func (*dcaAddCmd) Synopsis() string { return "add a dollar-cost averaging plan" }
func (*dcaAddCmd) Usage() string {
	return `pft dca-add -s <symbol> -every weekly|biweekly|monthly (-cash <amount> | -units <quantity>) [-start <date>]

  Adds a plan buying a symbol on a regular schedule, either for a fixed
  cash amount or a fixed number of units.
`
}

func (c *dcaAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to buy")
	f.StringVar(&c.every, "every", string(dca.Monthly), "Frequency: weekly, biweekly or monthly")
	f.StringVar(&c.cash, "cash", "", "Cash amount spent at each run")
	f.StringVar(&c.units, "units", "", "Number of units bought at each run")
	f.StringVar(&c.start, "start", date.Today().String(), "Date of the first run (YYYY-MM-DD)")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *dcaAddCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || (c.cash == "") == (c.units == "") {
		f.Usage()
		return subcommands.ExitUsageError
	}
	amountType, amount, name := dca.Cash, c.cash, "cash"
	if c.units != "" {
		amountType, amount, name = dca.Units, c.units, "units"
	}
	value, err := parseDecimal(name, amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	start, err := date.Parse(c.start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, err := dca.NewPlan(c.symbol, dca.Frequency(strings.ToLower(c.every)), amountType, value, start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	p.Note = strings.TrimSpace(c.memo)

	book, err := openPlans()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := book.Add(p); err != nil {
		return reportError("saving plan", err)
	}
	logActivity(activity.AddPlan{PlanID: p.ID, Symbol: p.Symbol})
	fmt.Fprintf(os.Stderr, "Added %s plan on %s (%s), first run on %s\n", p.Frequency, p.Symbol, p.ID, p.NextRun)
	return subcommands.ExitSuccess
}

// --- DCA Remove Command ---

type dcaRmCmd struct{}

func (*dcaRmCmd) Name() string     { return "dca-rm" }
func (*dcaRmCmd) Synopsis() string { return "remove dollar-cost averaging plans" }
func (*dcaRmCmd) Usage() string {
	return `pft dca-rm <id>...
`
}

func (*dcaRmCmd) SetFlags(*flag.FlagSet) {}

func (*dcaRmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	book, err := openPlans()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, id := range f.Args() {
		p, err := book.Remove(id)
		if err != nil {
			return reportError("removing plan", err)
		}
		logActivity(activity.RemovePlan{PlanID: p.ID, Symbol: p.Symbol})
		fmt.Fprintf(os.Stderr, "Removed plan on %s (%s)\n", p.Symbol, p.ID)
	}
	return subcommands.ExitSuccess
}

// --- DCA List Command ---

type dcaCmd struct {
	pause  string
	resume string
}

func (*dcaCmd) Name() string     { return "dca" }
func (*dcaCmd) Synopsis() string { return "list dollar-cost averaging plans" }
func (*dcaCmd) Usage() string {
	return `pft dca [-pause <id>] [-resume <id>]

  Lists the plans. Paused plans are kept but never run.
`
}

func (c *dcaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pause, "pause", "", "Pause the plan with this ID")
	f.StringVar(&c.resume, "resume", "", "Resume the plan with this ID")
}

func (c *dcaCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, err := openPlans()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := c.setActive(book); err != nil {
		return reportError("updating plan", err)
	}

	printMarkdown(renderer.Plans(book.List(), cfg.Currency))
	return subcommands.ExitSuccess
}

func (c *dcaCmd) setActive(book *dca.Book) error {
	for _, p := range book.List() {
		switch p.ID {
		case c.pause:
			p.Active = false
		case c.resume:
			p.Active = true
		default:
			continue
		}
		if err := book.Update(p); err != nil {
			return err
		}
	}
	return nil
}

// --- DCA Run Command ---

type dcaRunCmd struct {
	date string
}

func (*dcaRunCmd) Name() string     { return "dca-run" }
func (*dcaRunCmd) Synopsis() string { return "execute the due dollar-cost averaging plans" }
func (*dcaRunCmd) Usage() string {
	return `pft dca-run [-d <date>]

  Buys, at the current market price, every active plan due on the date,
  and moves each plan to its next run.
`
}

func (c *dcaRunCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Run the plans due on this date (YYYY-MM-DD)")
}

func (c *dcaRunCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	book, err := openPlans()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	txs, err := dca.NewRunner(book, a.tracker, a.quoter, notify).RunOnce(ctx, on)
	if len(txs) > 0 {
		printMarkdown(renderer.Transactions("DCA Purchases", txs))
	} else if err == nil {
		fmt.Fprintf(os.Stderr, "No plan due on %s.\n", on)
	}
	if err != nil {
		return reportError("running plans", err)
	}
	return subcommands.ExitSuccess
}
