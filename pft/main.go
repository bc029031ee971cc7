// Command pft tracks the positions of a portfolio.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/etnz/folio/cmd"
	"github.com/etnz/folio/config"
)

func main() {
	cfg := config.MustLoad()

	cmd.Completion(cfg).Complete("pft")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	setupLogger(cfg.LogLevel, *cmd.Verbose, flag.Arg(0) == "serve")
	cmd.Configure(cfg)

	os.Exit(int(commander.Execute(context.Background())))
}

// setupLogger logs text on stderr for the CLI, and JSON for the server.
func setupLogger(level string, verbose, server bool) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	if !server && logLevel == slog.LevelInfo {
		// commands print their own outcome
		logLevel = slog.LevelWarn
	}
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if server {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
