package report

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/etnz/folio"
)

const (
	HoldingsSheet     = "Holdings"
	TransactionsSheet = "Transactions"
)

// WriteXLSX writes a workbook with a Holdings sheet for p and a
// Transactions sheet for txs.
func WriteXLSX(w io.Writer, p *folio.Portfolio, txs []folio.Transaction) error {
	slog.Debug("WriteXLSX start", slog.Int("holdings", len(p.Holdings)), slog.Int("transactions", len(txs)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing workbook", slog.String("err", err.Error()))
		}
	}()

	if err := f.SetSheetName("Sheet1", HoldingsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return err
	}

	var rows [][]any
	for _, r := range holdingRows(p) {
		rows = append(rows, cells(r, 1, 2, 3, 4, 5, 6, 7, 8))
	}
	if err := fillSheet(f, HoldingsSheet, holdingHeader, rows, header); err != nil {
		return err
	}

	rows = nil
	for _, tx := range folio.Sorted(txs) {
		rows = append(rows, cells(transactionRow(tx), 3, 4, 5, 6))
	}
	if err := fillSheet(f, TransactionsSheet, transactionHeader, rows, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		slog.Error("got error while writing workbook", slog.String("err", err.Error()))
		return err
	}
	slog.Debug("WriteXLSX completed")
	return nil
}

func fillSheet(f *excelize.File, sheet string, header []string, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// cells converts a CSV row to cell values. The columns listed in numeric
// are stored as numbers so that the sheet can compute with them.
func cells(row []string, numeric ...int) []any {
	out := make([]any, len(row))
	for i, s := range row {
		out[i] = s
	}
	for _, i := range numeric {
		if row[i] == "" {
			continue
		}
		if v, err := strconv.ParseFloat(row[i], 64); err == nil {
			out[i] = v
		}
	}
	return out
}
