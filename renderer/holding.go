package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/etnz/folio"
)

// Holding renders one holding.
func Holding(h folio.Holding) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(h.Symbol)
	doc.Table(md.TableSet{
		Alignment: keyValue,
		Header:    []string{"Quantity", h.Quantity.String()},
		Rows: [][]string{
			{"Average Cost", h.AverageCost.String()},
			{"Price", h.Price.String()},
			{"Market Value", h.Value().String()},
			{"Cost Basis", h.CostBasis().String()},
			{"Unrealized", fmt.Sprintf("%s (%s)", h.Unrealized().SignedString(), h.ProfitPercent().SignedString())},
			{"Realized", h.Realized.SignedString()},
		},
	})
	return doc.String()
}
