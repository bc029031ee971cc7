package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/folio"
	"github.com/etnz/folio/activity"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/renderer"
)

// record records tx and prints the resulting holding.
func record(ctx context.Context, tx folio.Transaction) subcommands.ExitStatus {
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	h, err := a.tracker.Record(ctx, tx)
	if err != nil {
		return reportError("recording "+string(tx.Side), err)
	}
	fmt.Fprintf(os.Stderr, "Recorded %s (%s)\n", tx, tx.ID)
	printMarkdown(renderer.Holding(*h))
	return subcommands.ExitSuccess
}

// tradeFlags are the flags shared by the trade commands.
type tradeFlags struct {
	date     string
	symbol   string
	quantity string
	price    string
	fee      string
	currency string
	memo     string
}

func (c *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.symbol, "s", "", "Symbol")
	f.StringVar(&c.price, "p", "", "Price per unit")
	f.StringVar(&c.fee, "f", "", "Flat fee paid for the transaction")
	f.StringVar(&c.currency, "c", "", "Currency of price and fee (defaults to the reporting currency)")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

// transaction builds the transaction of side from the flags.
func (c *tradeFlags) transaction(side folio.Side) (folio.Transaction, error) {
	at, err := parseTime(c.date)
	if err != nil {
		return folio.Transaction{}, err
	}
	q, err := parseDecimal("q", c.quantity)
	if err != nil {
		return folio.Transaction{}, err
	}
	price, err := money("p", c.price, c.currency)
	if err != nil {
		return folio.Transaction{}, err
	}
	fee, err := money("f", c.fee, c.currency)
	if err != nil {
		return folio.Transaction{}, err
	}
	return folio.NewTransaction(at, c.symbol, side, folio.Q(q), price, fee, c.memo), nil
}

// --- Buy Command ---

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase units to open or add to a position" }
func (*buyCmd) Usage() string {
	return `pft buy -s <symbol> -q <quantity> -p <price> [-f <fee>] [-d <date>] [-c <currency>] [-m <memo>]

  Purchases units of a symbol. The average cost moves to the weighted
  average of the units held and the units bought. The fee is expensed.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.StringVar(&c.quantity, "q", "", "Number of units")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction(folio.Buy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return record(ctx, tx)
}

// --- Sell Command ---

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell units to trim or close a position" }
func (*sellCmd) Usage() string {
	return `pft sell -s <symbol> [-q <quantity>] -p <price> [-f <fee>] [-d <date>] [-c <currency>] [-m <memo>]

  Sells units of a symbol and realizes the gain against the average cost.
  Selling more than held is refused.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.StringVar(&c.quantity, "q", "", "Number of units, if missing all units are sold")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.quantity == "" {
		a, err := openApp(ctx, false)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		h, err := a.tracker.Holding(ctx, c.symbol)
		a.Close()
		if err != nil {
			return reportError("reading holding", err)
		}
		c.quantity = h.Quantity.String()
	}
	tx, err := c.transaction(folio.Sell)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return record(ctx, tx)
}

// --- Dividend Command ---

type dividendCmd struct{ tradeFlags }

func (*dividendCmd) Name() string     { return "dividend" }
func (*dividendCmd) Synopsis() string { return "record a dividend payment for a symbol" }
func (*dividendCmd) Usage() string {
	return `pft dividend -s <symbol> -q <units> -p <amount per unit> [-f <fee>] [-d <date>] [-c <currency>] [-m <memo>]

  Records a dividend of <amount per unit> paid on <units>. The payout, net
  of the fee, is realized. Units and average cost are unchanged.
`
}

func (c *dividendCmd) SetFlags(f *flag.FlagSet) {
	c.set(f)
	f.StringVar(&c.quantity, "q", "", "Number of units the dividend is paid on")
}

func (c *dividendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction(folio.Dividend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return record(ctx, tx)
}

// --- Fee Command ---

type feeCmd struct{ tradeFlags }

func (*feeCmd) Name() string     { return "fee" }
func (*feeCmd) Synopsis() string { return "record a standalone fee on a position" }
func (*feeCmd) Usage() string {
	return `pft fee -s <symbol> -f <amount> [-d <date>] [-c <currency>] [-m <memo>]

  Records a fee, like a custody fee, charged on a held symbol. It is
  realized as a loss.
`
}

func (c *feeCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *feeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.fee == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction(folio.Fee)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return record(ctx, tx)
}

// --- Remove Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove a transaction from the ledger" }
func (*rmCmd) Usage() string {
	return `pft rm <id>...

  Removes transactions and rebuilds their holdings. A removal that would
  leave a sell uncovered is refused.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for _, id := range f.Args() {
		tx, err := a.tracker.Remove(ctx, id)
		if err != nil {
			return reportError("removing "+id, err)
		}
		fmt.Fprintf(os.Stderr, "Removed %s\n", tx)
	}
	return subcommands.ExitSuccess
}

// --- Undo Command ---

type undoCmd struct{}

func (*undoCmd) Name() string     { return "undo" }
func (*undoCmd) Synopsis() string { return "revert the last recorded or removed transaction" }
func (*undoCmd) Usage() string {
	return `pft undo

  Reverts the most recent transaction change found in the activity log.
`
}

func (*undoCmd) SetFlags(*flag.FlagSet) {}

func (*undoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	rec, err := a.tracker.Undo(ctx)
	if errors.Is(err, activity.ErrNothingToUndo) {
		fmt.Fprintln(os.Stderr, "Nothing to undo.")
		return subcommands.ExitSuccess
	}
	if err != nil {
		return reportError("undoing", err)
	}
	fmt.Fprintf(os.Stderr, "Undone: %s\n", rec.Entry)
	return subcommands.ExitSuccess
}
