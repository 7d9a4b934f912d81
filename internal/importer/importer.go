// Package importer reads and writes transaction files. Parsing keeps every
// cell as text; validation belongs to the ledger's bulk import.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"saldo/internal/core"
)

// Format names a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Columns is the header written by the exporters and preferred by the parsers.
var Columns = []string{
	"type", "amount", "description", "transaction_date",
	"category_id", "payment_method_id", "to_payment_method_id",
}

// aliases maps accepted header spellings to canonical columns.
var aliases = map[string]string{
	"type":                 "type",
	"amount":               "amount",
	"description":          "description",
	"transaction_date":     "transaction_date",
	"date":                 "transaction_date",
	"category_id":          "category_id",
	"payment_method_id":    "payment_method_id",
	"account_id":           "payment_method_id",
	"from_account_id":      "payment_method_id",
	"to_payment_method_id": "to_payment_method_id",
	"to_account_id":        "to_payment_method_id",
}

var required = []string{"type", "amount", "transaction_date", "payment_method_id"}

var (
	ErrEmptyFile         = core.Validationf("import file has no header row")
	ErrUnsupportedFormat = core.Validationf("unsupported import format (use .csv or .xlsx)")
)

// DetectFormat picks the format from a file name.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// Parse reads r in the given format.
func Parse(format Format, r io.Reader) ([]core.ImportRow, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	}
	return nil, ErrUnsupportedFormat
}

// ParseCSV reads a header-named CSV file. Row numbers are file line numbers.
func ParseCSV(r io.Reader) ([]core.ImportRow, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, core.Validationf("read csv header: %v", err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []core.ImportRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, core.Validationf("read csv: %v", err)
		}
		line, _ := cr.FieldPos(0)
		if row, ok := buildRow(cols, record, line); ok {
			rows = append(rows, row)
		}
	}
}

// ParseXLSX reads the first sheet of a workbook. Row numbers are sheet rows.
func ParseXLSX(r io.Reader) ([]core.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.Validationf("open xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, core.Validationf("read sheet %s: %v", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	var rows []core.ImportRow
	for i, record := range records[1:] {
		if row, ok := buildRow(cols, record, i+2); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// mapHeader returns the canonical column name of each header cell, "" for
// unknown columns.
func mapHeader(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]bool)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		canonical, ok := aliases[name]
		if !ok {
			continue
		}
		if seen[canonical] {
			return nil, core.Validationf("duplicate column %q", canonical)
		}
		seen[canonical] = true
		cols[i] = canonical
	}
	var missing []string
	for _, c := range required {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, core.Validationf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// buildRow maps one record. Blank records are skipped.
func buildRow(cols, record []string, line int) (core.ImportRow, bool) {
	row := core.ImportRow{Line: line}
	blank := true
	for i, value := range record {
		if i >= len(cols) || cols[i] == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if value != "" {
			blank = false
		}
		switch cols[i] {
		case "type":
			row.Type = value
		case "amount":
			row.Amount = value
		case "description":
			row.Description = value
		case "transaction_date":
			row.TransactionDate = value
		case "category_id":
			row.CategoryID = value
		case "payment_method_id":
			row.PaymentMethodID = value
		case "to_payment_method_id":
			row.ToPaymentMethodID = value
		}
	}
	return row, !blank
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	buf := make([]byte, len(bom))
	n, err := io.ReadFull(r, buf)
	if err == nil && bytes.Equal(buf, bom) {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}

func record(t core.Transaction) []string {
	return []string{
		string(t.Type),
		t.Amount.String(),
		t.Description,
		core.FormatInstant(t.Date),
		t.CategoryID,
		t.FromAccountID,
		t.ToAccountID,
	}
}

// WriteCSV exports transactions in the import layout, so an export can be
// re-imported.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, t := range txs {
		if err := cw.Write(record(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX exports transactions as a single-sheet workbook.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, t := range txs {
		cells := record(t)
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	f.SetColWidth(sheet, "A", "A", 10)
	f.SetColWidth(sheet, "C", "C", 30)
	f.SetColWidth(sheet, "D", "D", 26)
	f.SetColWidth(sheet, "E", "G", 38)

	return f.Write(w)
}
