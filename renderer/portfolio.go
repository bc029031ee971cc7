package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio"
)

// Portfolio renders the totals and the open holdings of p.
func Portfolio(p *folio.Portfolio) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	doc.Table(md.TableSet{
		Alignment: keyValue,
		Header:    []string{md.Bold("Total Value"), md.Bold(p.TotalValue.String())},
		Rows: [][]string{
			{"Total Cost", p.TotalCost.String()},
			{"Unrealized", fmt.Sprintf("%s (%s)", p.TotalProfit.SignedString(), p.ProfitPercent.SignedString())},
			{"Realized", p.Realized.SignedString()},
		},
	})

	open := p.Open()
	if len(open) == 0 {
		doc.PlainText("No open holdings.")
		return doc.String()
	}
	doc.H2("Holdings")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Symbol", "Quantity", "Average Cost", "Price", "Value", "Profit", "Profit %", "Weight"},
	}
	for _, h := range open {
		table.Rows = append(table.Rows, []string{
			h.Symbol,
			h.Quantity.String(),
			h.AverageCost.String(),
			h.Price.String(),
			h.Value().String(),
			h.Unrealized().SignedString(),
			h.ProfitPercent().SignedString(),
			p.Weight(h).String(),
		})
	}
	doc.Table(table)
	return doc.String()
}
