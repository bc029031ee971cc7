package folio

import (
	"fmt"
	"time"
)

// Apply folds one transaction into a holding and returns the new holding.
// A nil prev means the symbol has no holding yet.
//
// Apply never modifies prev: on error prev is still the current state.
//
// Buys move the average cost to the weighted average of the units held and
// the units bought. Sells leave it unchanged and realize
// (price − average cost) × quantity − fee. Dividends realize
// quantity × price − fee and fees realize −fee; neither changes the quantity
// or the average cost. When a sell empties the holding the average cost is
// reset to zero, so the next buy starts a fresh cost basis.
func Apply(prev *Holding, tx Transaction) (*Holding, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if prev != nil {
		if prev.Symbol != tx.Symbol {
			return nil, invalid("symbol", "%s transaction applied to %s holding", tx.Symbol, prev.Symbol)
		}
		if !sameCurrency(prev.Currency(), tx.Currency()) {
			return nil, invalid("currency", "%s transaction in %s, holding in %s", tx.Symbol, tx.Currency(), prev.Currency())
		}
	}

	switch tx.Side {
	case Buy:
		if prev == nil {
			return &Holding{
				Symbol:      tx.Symbol,
				Quantity:    tx.Quantity,
				AverageCost: tx.Price,
				Price:       tx.Price,
				Realized:    M(0, tx.Currency()).Sub(tx.Fee),
			}, nil
		}
		next := *prev
		next.Quantity = prev.Quantity.Add(tx.Quantity)
		// next.Quantity > 0 because tx.Quantity > 0.
		next.AverageCost = prev.CostBasis().Add(tx.Amount()).Div(next.Quantity)
		next.Price = tx.Price
		next.Realized = prev.Realized.Sub(tx.Fee)
		return &next, nil

	case Sell:
		if prev == nil {
			return nil, &InsufficientHoldingError{Symbol: tx.Symbol, Requested: tx.Quantity}
		}
		if tx.Quantity.GreaterThan(prev.Quantity) {
			return nil, &InsufficientHoldingError{Symbol: tx.Symbol, Held: prev.Quantity, Requested: tx.Quantity}
		}
		next := *prev
		gain := tx.Price.Sub(prev.AverageCost).Mul(tx.Quantity).Sub(tx.Fee)
		next.Realized = prev.Realized.Add(gain)
		next.Quantity = prev.Quantity.Sub(tx.Quantity)
		next.Price = tx.Price
		if next.Quantity.IsZero() {
			next.AverageCost = M(0, prev.Currency())
		}
		return &next, nil

	case Dividend:
		if prev == nil {
			return nil, fmt.Errorf("dividend on %s: %w", tx.Symbol, ErrNoHolding)
		}
		next := *prev
		next.Realized = prev.Realized.Add(tx.Amount()).Sub(tx.Fee)
		return &next, nil

	case Fee:
		if prev == nil {
			return nil, fmt.Errorf("fee on %s: %w", tx.Symbol, ErrNoHolding)
		}
		next := *prev
		next.Realized = prev.Realized.Sub(tx.Fee)
		return &next, nil
	}
	// unreachable, Validate rejects unknown sides.
	return nil, invalid("side", "unknown side %q", tx.Side)
}

// Replay folds txs, in ascending time order, into a holding valued at price.
// txs is not modified. An empty history yields a nil holding and no error.
//
// A zero price without a currency keeps the price of the last trade.
func Replay(txs []Transaction, price Money) (*Holding, error) {
	var h *Holding
	for _, tx := range Sorted(txs) {
		next, err := Apply(h, tx)
		if err != nil {
			return nil, fmt.Errorf("replaying %s of %s on %s: %w", tx.Side, tx.Symbol, tx.Time.Format(time.RFC3339), err)
		}
		h = next
	}
	if h == nil {
		return nil, nil
	}
	valued, err := h.WithPrice(price)
	if err != nil {
		return nil, err
	}
	return &valued, nil
}
