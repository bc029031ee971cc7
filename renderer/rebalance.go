package renderer

import (
	"bytes"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio"
)

// Rebalance renders recommendations.
func Rebalance(recs []folio.Recommendation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Rebalance")
	if len(recs) == 0 {
		doc.PlainText("Nothing to rebalance.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Symbol", "Current", "Target", "Value", "Difference", "Action"},
	}
	for _, r := range recs {
		table.Rows = append(table.Rows, []string{
			r.Symbol,
			r.Current.String(),
			r.Target.String(),
			r.Value.String(),
			r.Difference.SignedString(),
			string(r.Action),
		})
	}
	doc.Table(table)
	return doc.String()
}
