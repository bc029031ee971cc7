package renderer

import (
	"bytes"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio/dca"
)

// Plans renders DCA plans. Cash amounts are in currency.
func Plans(plans []dca.Plan, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("DCA Plans")
	if len(plans) == 0 {
		doc.PlainText("No plans.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignLeft,
			md.AlignCenter,
			md.AlignLeft,
		},
		Header: []string{"ID", "Symbol", "Every", "Amount", "Next Run", "Active", "Note"},
	}
	for _, p := range plans {
		amount := p.Amount.String() + " units"
		if p.AmountType == dca.Cash {
			amount = p.Amount.String() + " " + currency
		}
		table.Rows = append(table.Rows, []string{p.ID, p.Symbol, string(p.Frequency), amount, p.NextRun.String(), check(p.Active), note(p.Note)})
	}
	doc.Table(table)
	return doc.String()
}
