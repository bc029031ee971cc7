package folio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// MarshalJSON writes the ledger layout of a transaction, with keys in a fixed
// order so that ledgers diff well.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("time", t.Time)
	w.Append("symbol", t.Symbol)
	w.Append("side", t.Side)
	w.Optional("quantity", t.Quantity)
	w.Optional("price", t.Price.value)
	w.Optional("fee", t.Fee.value)
	w.Optional("currency", t.Currency())
	w.Optional("note", t.Note)
	return w.MarshalJSON()
}

// txLine is the decoding twin of Transaction.MarshalJSON.
type txLine struct {
	ID       string          `json:"id"`
	Time     time.Time       `json:"time"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Currency string          `json:"currency"`
	Note     string          `json:"note"`
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var l txLine
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*t = Transaction{
		ID:       l.ID,
		Time:     l.Time,
		Symbol:   l.Symbol,
		Side:     l.Side,
		Quantity: Quantity{value: l.Quantity},
		Price:    Money{value: l.Price, cur: l.Currency},
		Fee:      Money{value: l.Fee, cur: l.Currency},
		Note:     l.Note,
	}
	return nil
}

// MarshalJSON writes the persisted snapshot of a holding.
func (h Holding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", h.Symbol)
	w.Append("currency", h.Currency())
	w.Append("quantity", h.Quantity)
	w.Append("averageCost", h.AverageCost.value)
	w.Append("price", h.Price.value)
	w.Append("realized", h.Realized.value)
	return w.MarshalJSON()
}

func (h *Holding) UnmarshalJSON(data []byte) error {
	var s struct {
		Symbol      string          `json:"symbol"`
		Currency    string          `json:"currency"`
		Quantity    decimal.Decimal `json:"quantity"`
		AverageCost decimal.Decimal `json:"averageCost"`
		Price       decimal.Decimal `json:"price"`
		Realized    decimal.Decimal `json:"realized"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = Holding{
		Symbol:      s.Symbol,
		Quantity:    Quantity{value: s.Quantity},
		AverageCost: Money{value: s.AverageCost, cur: s.Currency},
		Price:       Money{value: s.Price, cur: s.Currency},
		Realized:    Money{value: s.Realized, cur: s.Currency},
	}
	return nil
}

// EncodeTransaction writes tx as a single JSONL line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encoding transaction %s: %w", tx.ID, err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// EncodeTransactions writes txs as JSONL, in the given order.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTransactions reads a JSONL ledger. Blank lines are skipped. Each
// transaction is validated, errors report the offending line number.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal(b, &tx); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return txs, nil
}
