package folio

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// apply folds txs one at a time, failing the test on error.
func apply(t *testing.T, txs ...Transaction) *Holding {
	t.Helper()
	var h *Holding
	for _, tx := range txs {
		next, err := Apply(h, tx)
		if err != nil {
			t.Fatalf("Apply(%v) error = %v", tx, err)
		}
		h = next
	}
	return h
}

func TestApply_Examples(t *testing.T) {
	buy1 := NewBuy(day(1), "aapl", Q(10), USD(100), Money{})
	buy2 := NewBuy(day(2), "AAPL", Q(10), USD(200), Money{})
	sell := NewSell(day(3), "AAPL", Q(5), USD(300), Money{})
	div := NewDividend(day(4), "AAPL", Q(1), USD(50))

	tests := []struct {
		name string
		txs  []Transaction
		want Holding
	}{
		{
			name: "first buy",
			txs:  []Transaction{buy1},
			want: Holding{Symbol: "AAPL", Quantity: Q(10), AverageCost: USD(100), Price: USD(100), Realized: USD(0)},
		},
		{
			name: "second buy averages the cost",
			txs:  []Transaction{buy1, buy2},
			want: Holding{Symbol: "AAPL", Quantity: Q(20), AverageCost: USD(150), Price: USD(200), Realized: USD(0)},
		},
		{
			name: "sell realizes against the average cost",
			txs:  []Transaction{buy1, buy2, sell},
			want: Holding{Symbol: "AAPL", Quantity: Q(15), AverageCost: USD(150), Price: USD(300), Realized: USD(750)},
		},
		{
			name: "dividend realizes quantity times price",
			txs:  []Transaction{buy1, buy2, sell, div},
			want: Holding{Symbol: "AAPL", Quantity: Q(15), AverageCost: USD(150), Price: USD(300), Realized: USD(800)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(t, tt.txs...)
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_FirstBuyValue(t *testing.T) {
	h := apply(t, NewBuy(day(1), "AAPL", Q(10), USD(100), Money{}))
	if got, want := h.Value(), USD(1000); !got.Equal(want) {
		t.Errorf("Value() = %v, want %v", got, want)
	}
	if !h.Unrealized().IsZero() {
		t.Errorf("Unrealized() = %v, want 0", h.Unrealized())
	}
}

func TestApply_OversellLeavesHoldingUntouched(t *testing.T) {
	h := apply(t,
		NewBuy(day(1), "AAPL", Q(10), USD(100), Money{}),
		NewBuy(day(2), "AAPL", Q(10), USD(200), Money{}),
		NewSell(day(3), "AAPL", Q(5), USD(300), Money{}),
	)
	before := *h

	got, err := Apply(h, NewSell(day(4), "AAPL", Q(25), USD(300), Money{}))
	if got != nil {
		t.Errorf("Apply() = %v, want nil", got)
	}
	var insufficient *InsufficientHoldingError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Apply() error = %v, want *InsufficientHoldingError", err)
	}
	if !insufficient.Held.Equal(Q(15)) || !insufficient.Requested.Equal(Q(25)) {
		t.Errorf("error = %+v, want held 15 requested 25", insufficient)
	}
	if diff := cmp.Diff(before, *h); diff != "" {
		t.Errorf("holding modified (-before +after):\n%s", diff)
	}
}

func TestApply_Errors(t *testing.T) {
	aapl := apply(t, NewBuy(day(1), "AAPL", Q(10), USD(100), Money{}))

	tests := []struct {
		name string
		prev *Holding
		tx   Transaction
		is   error
		as   any
	}{
		{"sell without holding", nil, NewSell(day(2), "AAPL", Q(1), USD(1), Money{}), nil, new(*InsufficientHoldingError)},
		{"dividend without holding", nil, NewDividend(day(2), "AAPL", Q(1), USD(1)), ErrNoHolding, nil},
		{"fee without holding", nil, NewFee(day(2), "AAPL", USD(1)), ErrNoHolding, nil},
		{"zero quantity", aapl, NewBuy(day(2), "AAPL", Q(0), USD(1), Money{}), nil, new(*ValidationError)},
		{"negative quantity", aapl, NewSell(day(2), "AAPL", Q(-1), USD(1), Money{}), nil, new(*ValidationError)},
		{"negative price", aapl, NewBuy(day(2), "AAPL", Q(1), USD(-1), Money{}), nil, new(*ValidationError)},
		{"negative fee", aapl, NewBuy(day(2), "AAPL", Q(1), USD(1), USD(-1)), nil, new(*ValidationError)},
		{"empty fee", aapl, NewFee(day(2), "AAPL", USD(0)), nil, new(*ValidationError)},
		{"other symbol", aapl, NewBuy(day(2), "GOOG", Q(1), USD(1), Money{}), nil, new(*ValidationError)},
		{"other currency", aapl, NewBuy(day(2), "AAPL", Q(1), EUR(1), Money{}), nil, new(*ValidationError)},
		{"mixed currencies", aapl, NewBuy(day(2), "AAPL", Q(1), USD(1), EUR(1)), nil, new(*ValidationError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.prev, tt.tx)
			if err == nil {
				t.Fatalf("Apply() = %v, want an error", got)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Apply() error = %v, want %v", err, tt.is)
			}
			if tt.as != nil && !errors.As(err, tt.as) {
				t.Errorf("Apply() error = %T %v, want %T", err, err, tt.as)
			}
		})
	}
}

func TestApply_Fees(t *testing.T) {
	h := apply(t,
		NewBuy(day(1), "BTC", Q(2), USD(100), USD(1)),
		NewSell(day(2), "BTC", Q(1), USD(150), USD(2)),
		NewFee(day(3), "BTC", USD(3)),
	)
	want := Holding{Symbol: "BTC", Quantity: Q(1), AverageCost: USD(100), Price: USD(150), Realized: USD(-1 + 50 - 2 - 3)}
	if diff := cmp.Diff(want, *h); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_DividendAndFeeNeutrality(t *testing.T) {
	base := apply(t,
		NewBuy(day(1), "AAPL", Q(3), USD(10), Money{}),
		NewBuy(day(2), "AAPL", Q(1), USD(30), Money{}),
	)
	for _, tx := range []Transaction{
		NewDividend(day(3), "AAPL", Q(4), USD(0.25)),
		NewFee(day(3), "AAPL", USD(1.5)),
	} {
		t.Run(string(tx.Side), func(t *testing.T) {
			got, err := Apply(base, tx)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !got.Quantity.Equal(base.Quantity) {
				t.Errorf("Quantity = %v, want %v", got.Quantity, base.Quantity)
			}
			if !got.AverageCost.Equal(base.AverageCost) {
				t.Errorf("AverageCost = %v, want %v", got.AverageCost, base.AverageCost)
			}
			if got.Realized.Equal(base.Realized) {
				t.Errorf("Realized unchanged at %v", got.Realized)
			}
		})
	}
}

func TestApply_ZeroQuantity(t *testing.T) {
	h := apply(t,
		NewBuy(day(1), "ETH", Q(10), USD(100), Money{}),
		NewSell(day(2), "ETH", Q(10), USD(120), Money{}),
	)
	if !h.Quantity.IsZero() {
		t.Fatalf("Quantity = %v, want 0", h.Quantity)
	}
	if !h.AverageCost.Equal(USD(0)) {
		t.Errorf("AverageCost = %v, want 0", h.AverageCost)
	}
	if got := h.ProfitPercent(); got != 0 {
		t.Errorf("ProfitPercent() = %v, want 0", got)
	}
	if !h.Value().IsZero() || !h.Unrealized().IsZero() {
		t.Errorf("Value() = %v, Unrealized() = %v, want 0", h.Value(), h.Unrealized())
	}
	if h.IsOpen() {
		t.Error("IsOpen() = true, want false")
	}

	// a fresh buy starts a fresh cost basis.
	h, err := Apply(h, NewBuy(day(3), "ETH", Q(5), USD(50), Money{}))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := Holding{Symbol: "ETH", Quantity: Q(5), AverageCost: USD(50), Price: USD(50), Realized: USD(200)}
	if diff := cmp.Diff(want, *h); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestReplay_OrderSensitivity(t *testing.T) {
	b1 := NewBuy(day(1), "AAPL", Q(10), USD(100), Money{})
	b2 := NewBuy(day(2), "AAPL", Q(10), USD(200), Money{})

	t.Run("buys commute", func(t *testing.T) {
		swapped1, swapped2 := b2, b1
		swapped1.Time, swapped2.Time = day(1), day(2)
		a := must(Replay([]Transaction{b1, b2}, Money{}))
		b := must(Replay([]Transaction{swapped1, swapped2}, Money{}))
		if !a.AverageCost.Equal(USD(150)) || !b.AverageCost.Equal(USD(150)) {
			t.Errorf("AverageCost = %v and %v, want 150", a.AverageCost, b.AverageCost)
		}
	})

	t.Run("buy and sell do not", func(t *testing.T) {
		interleaved := must(Replay([]Transaction{
			b1,
			NewSell(day(2), "AAPL", Q(5), USD(300), Money{}),
			NewBuy(day(3), "AAPL", Q(10), USD(200), Money{}),
		}, Money{}))
		last := must(Replay([]Transaction{
			b1,
			NewBuy(day(2), "AAPL", Q(10), USD(200), Money{}),
			NewSell(day(3), "AAPL", Q(5), USD(300), Money{}),
		}, Money{}))

		if !interleaved.Realized.Equal(USD(1000)) {
			t.Errorf("interleaved Realized = %v, want 1000", interleaved.Realized)
		}
		if !last.Realized.Equal(USD(750)) {
			t.Errorf("sell last Realized = %v, want 750", last.Realized)
		}
		if interleaved.AverageCost.Equal(last.AverageCost) {
			t.Errorf("AverageCost = %v in both orders", last.AverageCost)
		}
		if !interleaved.Quantity.Equal(last.Quantity) {
			t.Errorf("Quantity = %v and %v, want equal", interleaved.Quantity, last.Quantity)
		}
	})

	t.Run("sorted by time", func(t *testing.T) {
		sell := NewSell(day(3), "AAPL", Q(15), USD(300), Money{})
		txs := []Transaction{sell, b2, b1}
		h, err := Replay(txs, Money{})
		if err != nil {
			t.Fatalf("Replay() error = %v", err)
		}
		if !h.Quantity.Equal(Q(5)) {
			t.Errorf("Quantity = %v, want 5", h.Quantity)
		}
		if txs[0].ID != sell.ID {
			t.Error("Replay() reordered its input")
		}
	})
}

func TestReplay_MatchesApply(t *testing.T) {
	txs := []Transaction{
		NewBuy(day(1), "BTC", Q(0.5), USD(40000), USD(10)),
		NewBuy(day(2), "BTC", Q(0.25), USD(42000), USD(5)),
		NewSell(day(5), "BTC", Q(0.3), USD(45000), USD(8)),
		NewFee(day(6), "BTC", USD(2)),
		NewDividend(day(7), "BTC", Q(0.45), USD(10)),
		NewBuy(day(9), "BTC", Q(1), USD(38000), Money{}),
		NewSell(day(10), "BTC", Q(1.45), USD(39000), Money{}),
	}
	for n := 0; n <= len(txs); n++ {
		var incremental *Holding
		for _, tx := range txs[:n] {
			var err error
			if incremental, err = Apply(incremental, tx); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
		}
		replayed, err := Replay(txs[:n], Money{})
		if err != nil {
			t.Fatalf("Replay(%d) error = %v", n, err)
		}
		if diff := cmp.Diff(incremental, replayed); diff != "" {
			t.Errorf("Replay(%d) mismatch (-apply +replay):\n%s", n, diff)
		}
	}
}

func TestReplay_Empty(t *testing.T) {
	h, err := Replay(nil, USD(10))
	if err != nil || h != nil {
		t.Errorf("Replay(nil) = %v, %v, want nil, nil", h, err)
	}
}

func TestReplay_Price(t *testing.T) {
	txs := []Transaction{
		NewBuy(day(1), "AAPL", Q(10), USD(100), Money{}),
		NewBuy(day(2), "AAPL", Q(10), USD(200), Money{}),
		NewSell(day(3), "AAPL", Q(5), USD(300), Money{}),
	}
	h, err := Replay(txs, USD(250))
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if !h.Price.Equal(USD(250)) {
		t.Errorf("Price = %v, want 250", h.Price)
	}
	if got, want := h.Unrealized(), USD(1500); !got.Equal(want) {
		t.Errorf("Unrealized() = %v, want %v", got, want)
	}
	if got, want := h.ProfitPercent(), Percent(200.0/3); !got.Equal(want) {
		t.Errorf("ProfitPercent() = %v, want %v", got, want)
	}

	if _, err := Replay(txs, EUR(250)); err == nil {
		t.Error("Replay() with a EUR price succeeded, want an error")
	}

	_, err = Replay(append(txs, NewSell(day(4), "AAPL", Q(25), USD(1), Money{})), Money{})
	var insufficient *InsufficientHoldingError
	if !errors.As(err, &insufficient) {
		t.Errorf("Replay() error = %v, want *InsufficientHoldingError", err)
	}
}
