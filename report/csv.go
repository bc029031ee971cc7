// Package report exports the portfolio and the ledger as CSV and Excel
// workbooks.
package report

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

var (
	holdingHeader     = []string{"Symbol", "Quantity", "Average Cost", "Price", "Value", "Profit", "Profit %", "Weight %", "Realized", "Currency"}
	transactionHeader = []string{"Date", "Symbol", "Side", "Quantity", "Price", "Fee", "Total", "Note", "Currency"}
)

// Total is the symbol of the summary row.
const Total = "TOTAL"

func fixed(m folio.Money) string { return m.Decimal().StringFixed(2) }

func percent(p folio.Percent) string {
	return decimal.NewFromFloat(float64(p)).StringFixed(2)
}

// holdingRows returns the rows of the open holdings of p, then the total.
func holdingRows(p *folio.Portfolio) [][]string {
	var rows [][]string
	for _, h := range p.Open() {
		rows = append(rows, []string{
			h.Symbol,
			h.Quantity.String(),
			fixed(h.AverageCost),
			fixed(h.Price),
			fixed(h.Value()),
			fixed(h.Unrealized()),
			percent(h.ProfitPercent()),
			percent(p.Weight(h)),
			fixed(h.Realized),
			p.Currency,
		})
	}
	return append(rows, []string{
		Total, "", "", "",
		fixed(p.TotalValue),
		fixed(p.TotalProfit),
		percent(p.ProfitPercent),
		"",
		fixed(p.Realized),
		p.Currency,
	})
}

// total returns what a transaction costs or pays: quantity × price + fee.
func total(tx folio.Transaction) folio.Money {
	return tx.Amount().Add(tx.Fee)
}

func transactionRow(tx folio.Transaction) []string {
	return []string{
		tx.Time.Format(time.DateOnly),
		tx.Symbol,
		string(tx.Side),
		tx.Quantity.String(),
		fixed(tx.Price),
		fixed(tx.Fee),
		fixed(total(tx)),
		tx.Note,
		tx.Currency(),
	}
}

// WriteCSV writes one row per open holding of p and a TOTAL row.
func WriteCSV(w io.Writer, p *folio.Portfolio) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(holdingHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(holdingRows(p)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteTransactionsCSV writes txs in ascending time order.
func WriteTransactionsCSV(w io.Writer, txs []folio.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return err
	}
	for _, tx := range folio.Sorted(txs) {
		if err := cw.Write(transactionRow(tx)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
