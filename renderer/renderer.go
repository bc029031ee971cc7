// Package renderer formats holdings, portfolios and ledgers as markdown.
package renderer

import (
	"strings"

	md "github.com/nao1215/markdown"
)

// keyValue is the alignment of two columns tables: a label and an amount.
var keyValue = []md.TableAlignment{md.AlignLeft, md.AlignRight}

// note makes free text fit in a table cell.
func note(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
