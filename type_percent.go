package folio

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Percent is a percentage: 12.5 means 12.5%. Holding weights, profit rates
// and rebalance targets are Percents.
type Percent float64

var hundred = decimal.NewFromInt(100)

// Share returns part as a percentage of whole, or 0 when whole is zero.
func Share(part, whole Money) Percent {
	if whole.value.IsZero() {
		return 0
	}
	return Percent(part.value.Div(whole.value).Mul(hundred).InexactFloat64())
}

// Of returns p percent of m.
func (p Percent) Of(m Money) Money {
	return Money{value: m.value.Mul(decimal.NewFromFloat(float64(p))).Div(hundred), cur: m.cur}
}

// Equal compares p and q to a hundredth of a basis point, float rounding
// aside.
func (p Percent) Equal(q Percent) bool {
	return math.Abs(float64(p-q)) < 0.0001
}

func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64) + "%"
}

// SignedString is like String with an explicit sign, and "-" when p rounds
// to zero, as Money.SignedString.
func (p Percent) SignedString() string {
	s := strconv.FormatFloat(float64(p), 'f', 2, 64)
	switch {
	case s == "0.00" || s == "-0.00":
		return "-"
	case p > 0:
		return "+" + s + "%"
	}
	return s + "%"
}
