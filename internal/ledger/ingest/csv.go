// Package ingest normalises trial balance exports into ledger rows.
//
// The reader accepts a fixed set of canonical header names (with
// whitespace trimmed); it does not attempt layout or date detection.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one normalised trial balance line.
type Row struct {
	GLCode      string
	AccountName string
	Amount      float64
}

// Accepted header names per column. Matching is exact after trimming.
var (
	glCodeHeaders      = []string{"GL Code", "GL_Code", "Account Code", "Code", "gl_code"}
	accountNameHeaders = []string{"Account Name", "Account_Name", "Description", "account_name"}
	amountHeaders      = []string{"Amount", "Balance", "Net Amount", "amount"}
)

// ErrMissingColumns indicates the export lacks one of the required columns.
var ErrMissingColumns = errors.New("ingest: missing required columns")

type columnIndex struct {
	glCode      int
	accountName int
	amount      int
}

// Parse reads a CSV trial balance export, returning one row per GL code.
// Rows with an empty GL code are dropped; duplicate GL codes are summed;
// unparseable amounts count as zero, matching how blank balance cells are
// exported.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, 64)
	byCode := make(map[string]*Row, 64)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read row: %w", err)
		}
		code := strings.TrimSpace(field(record, cols.glCode))
		if code == "" {
			continue
		}
		amount := parseAmount(field(record, cols.amount))
		existing, ok := byCode[code]
		if ok {
			existing.Amount += amount
			continue
		}
		row := &Row{
			GLCode:      code,
			AccountName: strings.TrimSpace(field(record, cols.accountName)),
			Amount:      amount,
		}
		byCode[code] = row
		order = append(order, code)
	}

	rows := make([]Row, 0, len(order))
	for _, code := range order {
		rows = append(rows, *byCode[code])
	}
	return rows, nil
}

func resolveColumns(header []string) (columnIndex, error) {
	cols := columnIndex{glCode: -1, accountName: -1, amount: -1}
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		switch {
		case cols.glCode < 0 && contains(glCodeHeaders, trimmed):
			cols.glCode = i
		case cols.accountName < 0 && contains(accountNameHeaders, trimmed):
			cols.accountName = i
		case cols.amount < 0 && contains(amountHeaders, trimmed):
			cols.amount = i
		}
	}
	var missing []string
	if cols.glCode < 0 {
		missing = append(missing, "GL Code")
	}
	if cols.accountName < 0 {
		missing = append(missing, "Account Name")
	}
	if cols.amount < 0 {
		missing = append(missing, "Amount")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func contains(names []string, candidate string) bool {
	for _, n := range names {
		if n == candidate {
			return true
		}
	}
	return false
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseAmount parses a balance cell exactly with decimal arithmetic before
// converting for storage. Thousands separators are stripped; parentheses
// denote negatives in most accounting exports.
func parseAmount(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f
}
