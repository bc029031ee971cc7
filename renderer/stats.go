package renderer

import (
	"bytes"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio"
)

// Stats renders transaction statistics. Sides are listed in their canonical
// order, unused ones are left out.
func Stats(s folio.TransactionStats) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Statistics")
	table := md.TableSet{
		Alignment: keyValue,
		Header:    []string{"Transactions", strconv.Itoa(s.Count)},
	}
	for _, side := range folio.Sides {
		if n := s.BySide[side]; n > 0 {
			table.Rows = append(table.Rows, []string{string(side), strconv.Itoa(n)})
		}
	}
	table.Rows = append(table.Rows,
		[]string{"Bought", s.Bought.String()},
		[]string{"Sold", s.Sold.String()},
		[]string{"Dividends", s.Dividends.String()},
		[]string{"Fees", s.Fees.String()},
	)
	doc.Table(table)
	return doc.String()
}
