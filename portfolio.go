package folio

import (
	"maps"
	"slices"
)

// Portfolio totals a set of holdings in a single currency.
type Portfolio struct {
	Currency      string
	Holdings      []Holding
	TotalValue    Money
	TotalCost     Money
	TotalProfit   Money // unrealized
	ProfitPercent Percent
	Realized      Money
}

// Summarize totals holdings. Every holding must be in currency.
func Summarize(currency string, holdings []Holding) (*Portfolio, error) {
	p := &Portfolio{
		Currency:    currency,
		Holdings:    holdings,
		TotalValue:  M(0, currency),
		TotalCost:   M(0, currency),
		TotalProfit: M(0, currency),
		Realized:    M(0, currency),
	}
	for _, h := range holdings {
		if !sameCurrency(currency, h.Currency()) {
			return nil, invalid("currency", "%s is held in %s, portfolio is in %s", h.Symbol, h.Currency(), currency)
		}
		p.TotalValue = p.TotalValue.Add(h.Value())
		p.TotalCost = p.TotalCost.Add(h.CostBasis())
		p.Realized = p.Realized.Add(h.Realized)
	}
	p.TotalProfit = p.TotalValue.Sub(p.TotalCost)
	p.ProfitPercent = Share(p.TotalProfit, p.TotalCost)
	return p, nil
}

// Open returns the holdings with a positive quantity.
func (p *Portfolio) Open() []Holding {
	var open []Holding
	for _, h := range p.Holdings {
		if h.IsOpen() {
			open = append(open, h)
		}
	}
	return open
}

// Weight returns the share of the total value held in h.
func (p *Portfolio) Weight(h Holding) Percent {
	return Share(h.Value(), p.TotalValue)
}

// Positions replays txs symbol by symbol. Symbols present in prices are
// valued at that price, the others at their last trade price. Holdings are
// sorted by symbol.
func Positions(txs []Transaction, prices map[string]Money) ([]Holding, error) {
	bySymbol := make(map[string][]Transaction)
	for _, tx := range txs {
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}
	holdings := make([]Holding, 0, len(bySymbol))
	for _, symbol := range slices.Sorted(maps.Keys(bySymbol)) {
		h, err := Replay(bySymbol[symbol], prices[symbol])
		if err != nil {
			return nil, err
		}
		if h != nil {
			holdings = append(holdings, *h)
		}
	}
	return holdings, nil
}
