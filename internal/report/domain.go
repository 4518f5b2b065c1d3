package report

import (
	"errors"
	"time"
)

// RowType classifies a rendered report row.
type RowType string

// Row types emitted by the template walk and the statement builders.
const (
	RowSectionHeader    RowType = "section_header"
	RowSubsectionHeader RowType = "subsection_header"
	RowLineItem         RowType = "line_item"
	RowSubsectionTotal  RowType = "subsection_total"
	RowSectionTotal     RowType = "section_total"
	RowCalculatedTotal  RowType = "calculated_total"
	RowFinalTotal       RowType = "final_total"
	RowBlank            RowType = "blank"
)

// Row is one rendered statement line. Amounts is nil for header and blank
// rows, which carry no figures.
type Row struct {
	Name        string
	Amounts     *VariantSet
	IsHeader    bool
	IsBold      bool
	IndentLevel int
	Type        RowType
}

// ProfitLossSummary exposes the derived totals of a P&L statement, one
// VariantSet each across the six-way fan-out.
type ProfitLossSummary struct {
	TotalRevenue    VariantSet
	GrossProfit     VariantSet
	EBITDA          VariantSet
	OperatingProfit VariantSet
	ProfitBeforeTax VariantSet
	NetProfit       VariantSet
}

// ProfitLossReport is the assembled P&L statement.
type ProfitLossReport struct {
	Title     string
	PeriodEnd time.Time
	Variants  []Variant
	Rows      []Row
	Summary   ProfitLossSummary
}

// BalanceSheetSummary exposes the headline balance sheet totals for the
// rendered variant, plus every section and subsection total by line id.
type BalanceSheetSummary struct {
	TotalAssets     float64
	TotalLiabEquity float64
	SectionTotals   map[string]float64
}

// BalanceSheetReport is the assembled balance sheet. An unbalanced sheet is
// a valid result with Balances=false, never an error.
type BalanceSheetReport struct {
	Title      string
	PeriodEnd  time.Time
	Variant    Variant
	Rows       []Row
	Summary    BalanceSheetSummary
	Balances   bool
	Difference float64
}

// balanceTolerance is the absolute difference under which a balance sheet
// is considered balanced.
const balanceTolerance = 0.01

// Errors surfaced by the report module.
var (
	// ErrTemplateNotFound indicates no template exists for the report type.
	ErrTemplateNotFound = errors.New("report: template not found")
	// ErrTemplateInvalid indicates a template missing required keys.
	ErrTemplateInvalid = errors.New("report: template invalid")
)
