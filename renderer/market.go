package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
	"github.com/etnz/folio/alert"
	"github.com/etnz/folio/market"
)

// Quotes renders current prices.
func Quotes(quotes []market.Quote) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Quotes")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Symbol", "Name", "Price", "Change"},
	}
	for _, q := range quotes {
		table.Rows = append(table.Rows, []string{q.Symbol, note(q.Name), q.Price.String(), fmt.Sprintf("%+.2f%%", q.ChangePercent)})
	}
	doc.Table(table)
	return doc.String()
}

// Search renders the symbols matching query.
func Search(query string, results []market.SearchResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Search %q", query))
	if len(results) == 0 {
		doc.PlainText("No match.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Header:    []string{"Symbol", "Name", "Category"},
	}
	for _, r := range results {
		table.Rows = append(table.Rows, []string{r.Symbol, note(r.Name), string(r.Category)})
	}
	doc.Table(table)
	return doc.String()
}

// Alerts renders price alerts.
func Alerts(alerts []alert.Alert) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Alerts")
	if len(alerts) == 0 {
		doc.PlainText("No alerts.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignCenter, md.AlignLeft},
		Header:    []string{"ID", "Symbol", "Condition", "Target", "Enabled", "Note"},
	}
	for _, a := range alerts {
		table.Rows = append(table.Rows, []string{a.ID, a.Symbol, string(a.Direction), a.Target.String(), check(a.Enabled), note(a.Note)})
	}
	doc.Table(table)
	return doc.String()
}

// Exchange renders the conversion of amount at rate.
func Exchange(amount folio.Money, to string, rate decimal.Decimal) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("%s to %s", amount.Currency(), to))
	doc.Table(md.TableSet{
		Alignment: keyValue,
		Header:    []string{"Rate", rate.String()},
		Rows: [][]string{
			{"Amount", amount.String()},
			{"Converted", amount.Exchange(rate, to).String()},
		},
	})
	return doc.String()
}

func check(b bool) string {
	if b {
		return "X"
	}
	return " "
}
