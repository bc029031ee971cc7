package folio

import (
	"cmp"
	"slices"
)

// Action is what a Recommendation suggests doing.
type Action string

const (
	Hold       Action = "hold"
	BuyAction  Action = "buy"
	SellAction Action = "sell"
)

// holdBand is the share of the total value below which a difference is
// ignored.
const holdBand Percent = 1

// Recommendation moves one symbol towards its target weight.
type Recommendation struct {
	Symbol     string
	Current    Percent
	Target     Percent
	Value      Money // current value
	Difference Money // target value − current value
	Action     Action
}

// Rebalance compares current weights against targets. Targets that do not
// sum to 100 are scaled so they do. Symbols on either side (held without a
// target, or targeted without being held) are included. The result is
// sorted by absolute difference, largest first, and is empty when holdings
// have no value.
func Rebalance(holdings []Holding, targets map[string]Percent) []Recommendation {
	var currency string
	values := make(map[string]Money)
	total := Money{}
	for _, h := range holdings {
		if currency == "" {
			currency = h.Currency()
		}
		v := h.Value()
		values[h.Symbol] = values[h.Symbol].Add(v)
		total = total.Add(v)
	}
	if total.IsZero() {
		return nil
	}

	var sum Percent
	for _, t := range targets {
		sum += t
	}
	normalized := make(map[string]Percent, len(targets))
	for symbol, t := range targets {
		if sum != 0 && !sum.Equal(100) {
			t = t * 100 / sum
		}
		normalized[NormalizeSymbol(symbol)] = t
	}
	for symbol := range normalized {
		if _, ok := values[symbol]; !ok {
			values[symbol] = M(0, currency)
		}
	}

	band := holdBand.Of(total)
	recs := make([]Recommendation, 0, len(values))
	for symbol, v := range values {
		target := normalized[symbol]
		diff := target.Of(total).Sub(v)
		r := Recommendation{
			Symbol:     symbol,
			Current:    Share(v, total),
			Target:     target,
			Value:      v,
			Difference: diff,
			Action:     Hold,
		}
		if !diff.Abs().LessThan(band) {
			if diff.IsPositive() {
				r.Action = BuyAction
			} else {
				r.Action = SellAction
			}
		}
		recs = append(recs, r)
	}
	slices.SortFunc(recs, func(a, b Recommendation) int {
		if c := b.Difference.Abs().value.Cmp(a.Difference.Abs().value); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return recs
}
