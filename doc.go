// Package folio is the position accounting engine of a personal portfolio
// tracker.
//
// Transactions (buy, sell, dividend and fee) are immutable records. A Holding
// is the fold of the transactions of one symbol, in time order, under the
// weighted average cost method: Apply folds one transaction into a holding,
// Replay folds a whole history. Both are pure functions, they do no I/O and
// share no state.
//
// The package also aggregates holdings into a Portfolio, suggests rebalancing
// trades and encodes the ledger as JSONL, one transaction per line.
package folio
