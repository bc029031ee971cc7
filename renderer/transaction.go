package renderer

import (
	"bytes"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio"
)

// Transactions renders txs in ascending time order under title.
func Transactions(title string, txs []folio.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	if len(txs) == 0 {
		doc.PlainText("No transactions.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Date", "Symbol", "Side", "Quantity", "Price", "Fee", "Note"},
	}
	for _, tx := range folio.Sorted(txs) {
		table.Rows = append(table.Rows, []string{
			tx.Time.Format(time.DateOnly),
			tx.Symbol,
			string(tx.Side),
			tx.Quantity.String(),
			tx.Price.String(),
			tx.Fee.String(),
			note(tx.Note),
		})
	}
	doc.Table(table)
	return doc.String()
}
