package folio

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an exact amount in a currency.
//
// The empty currency is weak: it adopts the currency of the other operand in
// binary operations, so that zero values can be used as accumulators.
type Money struct {
	value decimal.Decimal // major unit value
	cur   string
}

// M returns a Money from any supported number and an ISO currency code.
func M[T number](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ParseMoney parses a decimal amount in the given currency.
func ParseMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{value: d, cur: currency}, nil
}

// currency returns the go-money definition of m's currency.
func (m Money) currency() money.Currency {
	// the constructor is the only way to get a never nil currency.
	return *money.New(0, m.cur).Currency()
}

// String formats m using the currency's grapheme and fraction digits.
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString is like String with an explicit sign, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) Currency() string               { return m.cur }
func (m Money) Decimal() decimal.Decimal       { return m.value }
func (m Money) Equal(n Money) bool             { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                   { return m.value.IsZero() }
func (m Money) IsPositive() bool               { return m.value.IsPositive() }
func (m Money) IsNegative() bool               { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool          { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool       { return m.value.GreaterThan(n.value) }
func (m Money) Abs() Money                     { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) Mul(q Quantity) Money           { return Money{value: m.value.Mul(q.value), cur: m.cur} }
func (m Money) Div(q Quantity) Money           { return Money{value: m.value.Div(q.value), cur: m.cur} }
func (m Money) Add(n Money) Money              { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money              { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// Exchange converts m into currency, one unit of m's currency being worth
// rate units of currency.
func (m Money) Exchange(rate decimal.Decimal, currency string) Money {
	return Money{value: m.value.Mul(rate), cur: currency}
}

// cur makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

// sameCurrency reports whether a and b can be combined.
func sameCurrency(a, b string) bool {
	return a == "" || b == "" || a == b
}
