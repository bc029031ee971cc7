package folio

import (
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	for _, s := range []string{"buy", " SELL ", "Dividend", "fee"} {
		if _, err := ParseSide(s); err != nil {
			t.Errorf("ParseSide(%q) error = %v", s, err)
		}
	}
	_, err := ParseSide("transfer")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "side" {
		t.Errorf("ParseSide(transfer) error = %v, want a side ValidationError", err)
	}
}

func TestNewTransaction(t *testing.T) {
	tx := NewBuy(day(1), " btc ", Q(1), USD(10), Money{})
	if tx.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", tx.Symbol)
	}
	if tx.ID == "" {
		t.Error("ID is empty")
	}
	if tx.Fee.Currency() != "USD" {
		t.Errorf("Fee currency = %q, want USD", tx.Fee.Currency())
	}
	if other := NewBuy(day(1), "BTC", Q(1), USD(10), Money{}); other.ID == tx.ID {
		t.Error("two transactions share an ID")
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := NewBuy(day(1), "AAPL", Q(1), USD(10), Money{})
	tests := []struct {
		name   string
		modify func(*Transaction)
		field  string
	}{
		{"missing symbol", func(tx *Transaction) { tx.Symbol = "" }, "symbol"},
		{"lower case symbol", func(tx *Transaction) { tx.Symbol = "aapl" }, "symbol"},
		{"unknown side", func(tx *Transaction) { tx.Side = "gift" }, "side"},
		{"zero quantity", func(tx *Transaction) { tx.Quantity = Q(0) }, "quantity"},
		{"negative price", func(tx *Transaction) { tx.Price = USD(-1) }, "price"},
		{"negative fee", func(tx *Transaction) { tx.Fee = USD(-0.01) }, "fee"},
		{"currency mismatch", func(tx *Transaction) { tx.Fee = EUR(1) }, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.modify(&tx)
			var verr *ValidationError
			if err := tx.Validate(); !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Validate() error = %v, want a %s ValidationError", err, tt.field)
			}
		})
	}
}

func TestSorted(t *testing.T) {
	a := NewBuy(day(2), "AAPL", Q(1), USD(1), Money{})
	b := NewBuy(day(1), "AAPL", Q(2), USD(1), Money{})
	c := NewBuy(day(2), "AAPL", Q(3), USD(1), Money{})
	in := []Transaction{a, b, c}
	got := Sorted(in)
	if got[0].ID != b.ID || got[1].ID != a.ID || got[2].ID != c.ID {
		t.Errorf("Sorted() = %v", got)
	}
	if in[0].ID != a.ID {
		t.Error("Sorted() modified its input")
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD(1234.5), "$1,234.50"},
		{USD(0.005), "$0.01"},
		{USD(-3), "-$3.00"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if got := USD(0).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want -", got)
	}
	if got := USD(2).SignedString(); got != "+$2.00" {
		t.Errorf("SignedString() = %q, want +$2.00", got)
	}
}

func TestMoneyWeakCurrency(t *testing.T) {
	sum := Money{}.Add(USD(3)).Add(USD(4))
	if !sum.Equal(USD(7)) {
		t.Errorf("Add() = %v, want USD 7", sum)
	}
	defer func() {
		if recover() == nil {
			t.Error("adding USD to EUR did not panic")
		}
	}()
	USD(1).Add(EUR(1))
}

func TestPercent(t *testing.T) {
	if got := Percent(12.345).String(); got != "12.35%" && got != "12.34%" {
		t.Errorf("String() = %q", got)
	}
	if got := Percent(0).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want -", got)
	}
	if got := Percent(-1.5).SignedString(); got != "-1.50%" {
		t.Errorf("SignedString() = %q, want -1.50%%", got)
	}
}

func TestShareAndOf(t *testing.T) {
	if got := Share(USD(25), USD(200)); !got.Equal(12.5) {
		t.Errorf("Share(25, 200) = %v, want 12.5%%", got)
	}
	if got := Share(USD(25), USD(0)); got != 0 {
		t.Errorf("Share(25, 0) = %v, want 0", got)
	}
	if got := Percent(12.5).Of(USD(200)); !got.Equal(USD(25)) {
		t.Errorf("12.5%% of 200 = %v, want 25", got)
	}
	if got := Percent(0.001).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want - for a rounded zero", got)
	}
}
