package folio

import "github.com/shopspring/decimal"

// Holding is the derived state of one symbol: the fold of its transactions.
//
// AverageCost is the weighted average purchase price of the units held. It is
// zero whenever Quantity is zero. Price is the current market price, supplied
// by a quote or, failing that, the price of the last trade.
type Holding struct {
	Symbol      string
	Quantity    Quantity
	AverageCost Money
	Price       Money
	Realized    Money // cumulative, from sells, dividends and fees
}

// Currency returns the currency the holding is accounted in.
func (h Holding) Currency() string {
	for _, m := range []Money{h.Price, h.AverageCost, h.Realized} {
		if m.cur != "" {
			return m.cur
		}
	}
	return ""
}

// IsOpen reports whether any unit is still held.
func (h Holding) IsOpen() bool { return h.Quantity.IsPositive() }

// Value is the market value of the units held.
func (h Holding) Value() Money { return h.Price.Mul(h.Quantity) }

// CostBasis is what the units held cost, at average cost.
func (h Holding) CostBasis() Money { return h.AverageCost.Mul(h.Quantity) }

// Unrealized is the paper profit of the units held.
func (h Holding) Unrealized() Money { return h.Value().Sub(h.CostBasis()) }

// ProfitPercent is Unrealized relative to the cost basis, 0 when the cost
// basis is 0.
func (h Holding) ProfitPercent() Percent {
	return Share(h.Unrealized(), h.CostBasis())
}

// In returns h with its amounts exchanged into currency at rate, see
// Money.Exchange. The quantity is unchanged.
func (h Holding) In(currency string, rate decimal.Decimal) Holding {
	h.AverageCost = h.AverageCost.Exchange(rate, currency)
	h.Price = h.Price.Exchange(rate, currency)
	h.Realized = h.Realized.Exchange(rate, currency)
	return h
}

// WithPrice returns a copy of h valued at price. A zero price without a
// currency leaves h unchanged.
func (h Holding) WithPrice(price Money) (Holding, error) {
	if price.cur == "" && price.IsZero() {
		return h, nil
	}
	if price.IsNegative() {
		return h, invalid("price", "price must not be negative, got %s", price.value)
	}
	if !sameCurrency(h.Currency(), price.cur) {
		return h, invalid("currency", "%s is accounted in %s, quote is in %s", h.Symbol, h.Currency(), price.cur)
	}
	h.Price = price
	if h.Price.cur == "" {
		h.Price.cur = h.Currency()
	}
	return h, nil
}
