package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/etnz/folio"
)

func usd(v float64) folio.Money { return folio.M(v, "USD") }

func samplePortfolio(t *testing.T) *folio.Portfolio {
	t.Helper()
	p, err := folio.Summarize("USD", []folio.Holding{
		{Symbol: "AAPL", Quantity: folio.Q(10), AverageCost: usd(150), Price: usd(200), Realized: usd(0)},
		{Symbol: "ACME", Quantity: folio.Q(0), AverageCost: usd(0), Price: usd(12), Realized: usd(20)},
		{Symbol: "BTC", Quantity: folio.Q(0.5), AverageCost: usd(30000), Price: usd(40000), Realized: usd(-5)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func sampleTransactions() []folio.Transaction {
	at := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	sell := folio.NewSell(at.AddDate(0, 0, 2), "AAPL", folio.Q(2), usd(210), usd(1.5))
	sell.Note = "trim, partial"
	return []folio.Transaction{
		sell,
		folio.NewBuy(at, "AAPL", folio.Q(10), usd(150), usd(2)),
		folio.NewFee(at.AddDate(0, 0, 5), "AAPL", usd(3)),
	}
}

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v\n%s", err, b)
	}
	return records
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, samplePortfolio(t)); err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		holdingHeader,
		{"AAPL", "10", "150.00", "200.00", "2000.00", "500.00", "33.33", "9.09", "0.00", "USD"},
		{"BTC", "0.5", "30000.00", "40000.00", "20000.00", "5000.00", "33.33", "90.91", "-5.00", "USD"},
		{"TOTAL", "", "", "", "22000.00", "5500.00", "33.33", "", "15.00", "USD"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("WriteCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTransactionsCSV(&buf, sampleTransactions()); err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		transactionHeader,
		{"2025-03-01", "AAPL", "buy", "10", "150.00", "2.00", "1502.00", "", "USD"},
		{"2025-03-03", "AAPL", "sell", "2", "210.00", "1.50", "421.50", "trim, partial", "USD"},
		{"2025-03-06", "AAPL", "fee", "0", "0.00", "3.00", "3.00", "", "USD"},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.Bytes())); diff != "" {
		t.Errorf("WriteTransactionsCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, samplePortfolio(t), sampleTransactions()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{HoldingsSheet, TransactionsSheet}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	holdings, err := f.GetRows(HoldingsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 4 || holdings[3][0] != Total {
		t.Errorf("Holdings sheet = %v, want a header, 2 holdings and a total", holdings)
	}
	if v, _ := f.GetCellValue(HoldingsSheet, "E4"); v != "22000" {
		t.Errorf("total value cell = %q, want 22000", v)
	}

	txs, err := f.GetRows(TransactionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 4 {
		t.Fatalf("Transactions sheet has %d rows, want 4", len(txs))
	}
	if diff := cmp.Diff([]string{"2025-03-03", "AAPL", "sell", "2", "210", "1.5", "421.5", "trim, partial", "USD"}, txs[2]); diff != "" {
		t.Errorf("sell row mismatch (-want +got):\n%s", diff)
	}
}
