package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/etnz/folio/alert"
	"github.com/etnz/folio/dca"
	"github.com/etnz/folio/server"
)

type serveCmd struct {
	addr   string
	noJobs bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the JSON API and run the DCA plans" }
func (*serveCmd) Usage() string {
	return `pft serve [-addr <host:port>] [-no-jobs]

  Serves the tracker over HTTP, with Prometheus metrics on /metrics, and
  runs the due DCA plans periodically (FOLIO_DCA_INTERVAL).
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Overrides FOLIO_HTTP_ADDR")
	f.BoolVar(&c.noJobs, "no-jobs", false, "Do not run the DCA plans")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	addr := cfg.HTTP.Addr
	if c.addr != "" {
		addr = c.addr
	}
	a, err := openApp(ctx, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if !c.noJobs {
		book, err := openPlans()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		runner := dca.NewRunner(book, a.tracker, a.quoter, func(n alert.Notification) {
			slog.Info("notification", slog.String("kind", n.Kind()), slog.String("message", n.Message()))
		})
		if err := runner.Start(cfg.Jobs.DCAInterval); err != nil {
			return reportError("starting dca jobs", err)
		}
		defer runner.Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx, addr, server.New(a.tracker, cfg.Currency).Routes()); err != nil {
		return reportError("serving", err)
	}
	return subcommands.ExitSuccess
}
