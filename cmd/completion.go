package cmd

import (
	"context"
	"flag"
	"slices"
	"time"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/folio/config"
	"github.com/etnz/folio/dca"
	"github.com/etnz/folio/docs"
	"github.com/etnz/folio/store"
)

// Completion returns the shell completion of the pft command. Symbols are
// predicted from the ledger selected by c.
func Completion(c *config.Config) *complete.Command {
	symbols := complete.PredictFunc(func(string) []string { return ledgerSymbols(c) })
	flags := map[string]complete.Predictor{
		"ledger-file": predict.Files("*.jsonl"),
		"currency":    predict.Something,
		"v":           predict.Nothing,
	}
	root := &complete.Command{Sub: map[string]*complete.Command{}, Flags: flags}
	for _, g := range groups() {
		for _, cmd := range g.commands {
			root.Sub[cmd.Name()] = commandCompletion(cmd, symbols)
		}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

func commandCompletion(cmd subcommands.Command, symbols complete.Predictor) *complete.Command {
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	cc := &complete.Command{Flags: map[string]complete.Predictor{}}
	f.VisitAll(func(fl *flag.Flag) {
		cc.Flags[fl.Name] = flagPredictor(fl, symbols)
	})
	switch cmd.Name() {
	case "holding", "quote":
		cc.Args = symbols
	case "topic":
		if topics, err := docs.All(); err == nil {
			cc.Args = predict.Set(topics)
		}
	}
	return cc
}

func flagPredictor(fl *flag.Flag, symbols complete.Predictor) complete.Predictor {
	switch fl.Name {
	case "s":
		return symbols
	case "o":
		return predict.Files("*")
	case "format":
		return predict.Set{"csv", "transactions", "xlsx"}
	case "every":
		return predict.Set{string(dca.Weekly), string(dca.Biweekly), string(dca.Monthly)}
	}
	if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	return predict.Something
}

// ledgerSymbols lists the symbols traded in the ledger, or nothing if it
// cannot be read.
func ledgerSymbols(c *config.Config) []string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := store.Open(ctx, c)
	if err != nil {
		return nil
	}
	defer s.Close()
	txs, err := s.AllTransactions(ctx)
	if err != nil {
		return nil
	}
	var symbols []string
	for _, tx := range txs {
		if !slices.Contains(symbols, tx.Symbol) {
			symbols = append(symbols, tx.Symbol)
		}
	}
	slices.Sort(symbols)
	return symbols
}
