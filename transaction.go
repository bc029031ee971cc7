package folio

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Side is the kind of a transaction.
type Side string

// Transaction sides.
const (
	Buy      Side = "buy"
	Sell     Side = "sell"
	Dividend Side = "dividend"
	Fee      Side = "fee"
)

// Sides lists every valid side.
var Sides = []Side{Buy, Sell, Dividend, Fee}

// ParseSide parses a side, ignoring case and surrounding spaces.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Sides, side) {
		return "", invalid("side", "unknown side %q (use buy|sell|dividend|fee)", s)
	}
	return side, nil
}

// Transaction is an immutable record of one trade event.
//
// Quantity counts units for buy and sell, and the units a payout applies to
// for dividends (the dividend amount is Quantity × Price). Fee is a flat cost
// attached to any side; for a fee transaction it is the whole amount.
type Transaction struct {
	ID       string
	Time     time.Time
	Symbol   string
	Side     Side
	Quantity Quantity
	Price    Money // per unit
	Fee      Money
	Note     string
}

// NewTransaction creates a transaction with a fresh ID and a normalized symbol.
func NewTransaction(at time.Time, symbol string, side Side, quantity Quantity, price, fee Money, note string) Transaction {
	// price and fee always share a currency.
	if price.cur == "" {
		price.cur = fee.cur
	}
	if fee.cur == "" {
		fee.cur = price.cur
	}
	return Transaction{
		ID:       uuid.NewString(),
		Time:     at,
		Symbol:   NormalizeSymbol(symbol),
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Fee:      fee,
		Note:     note,
	}
}

// NewBuy creates a buy of quantity units at price per unit.
func NewBuy(at time.Time, symbol string, quantity Quantity, price, fee Money) Transaction {
	return NewTransaction(at, symbol, Buy, quantity, price, fee, "")
}

// NewSell creates a sell of quantity units at price per unit.
func NewSell(at time.Time, symbol string, quantity Quantity, price, fee Money) Transaction {
	return NewTransaction(at, symbol, Sell, quantity, price, fee, "")
}

// NewDividend creates a dividend paying price per unit on quantity units.
func NewDividend(at time.Time, symbol string, quantity Quantity, price Money) Transaction {
	return NewTransaction(at, symbol, Dividend, quantity, price, Money{}, "")
}

// NewFee creates a standalone fee charged against symbol.
func NewFee(at time.Time, symbol string, fee Money) Transaction {
	return NewTransaction(at, symbol, Fee, Quantity{}, Money{}, fee, "")
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Currency returns the currency of the transaction amounts.
func (t Transaction) Currency() string {
	if t.Price.cur != "" {
		return t.Price.cur
	}
	return t.Fee.cur
}

// Amount returns the gross amount of the transaction, Quantity × Price.
func (t Transaction) Amount() Money {
	return t.Price.Mul(t.Quantity)
}

// Equal reports whether t and o record the same event.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Time.Equal(o.Time) && t.Symbol == o.Symbol && t.Side == o.Side &&
		t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) && t.Fee.Equal(o.Fee) && t.Note == o.Note
}

// Validate checks the transaction fields and returns a *ValidationError
// describing the first problem found.
func (t Transaction) Validate() error {
	if t.Symbol == "" {
		return invalid("symbol", "symbol is missing")
	}
	if t.Symbol != NormalizeSymbol(t.Symbol) {
		return invalid("symbol", "symbol %q is not normalized", t.Symbol)
	}
	if !slices.Contains(Sides, t.Side) {
		return invalid("side", "unknown side %q", t.Side)
	}
	if t.Quantity.IsNegative() {
		return invalid("quantity", "quantity must not be negative, got %s", t.Quantity)
	}
	if t.Side != Fee && !t.Quantity.IsPositive() {
		return invalid("quantity", "%s quantity must be positive, got %s", t.Side, t.Quantity)
	}
	if t.Price.IsNegative() {
		return invalid("price", "price must not be negative, got %s", t.Price.value)
	}
	if t.Fee.IsNegative() {
		return invalid("fee", "fee must not be negative, got %s", t.Fee.value)
	}
	if t.Side == Fee && !t.Fee.IsPositive() {
		return invalid("fee", "fee transaction amount must be positive")
	}
	if !sameCurrency(t.Price.cur, t.Fee.cur) {
		return invalid("currency", "price in %s but fee in %s", t.Price.cur, t.Fee.cur)
	}
	return nil
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s", t.Time.Format(time.DateOnly), t.Side, t.Quantity, t.Symbol, t.Price)
}

// Sorted returns a copy of txs in ascending time order. Transactions at the
// same instant keep their relative order.
func Sorted(txs []Transaction) []Transaction {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		return a.Time.Compare(b.Time)
	})
	return sorted
}
