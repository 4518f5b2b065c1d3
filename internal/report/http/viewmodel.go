// Package http exposes the report endpoints as a JSON API.
package http

import (
	"github.com/ferretmix/ferretmix/internal/report"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// RowVM is the wire shape of one report row. Amounts is keyed by variant
// name and omitted for header and blank rows.
type RowVM struct {
	Name        string             `json:"name"`
	Amounts     map[string]float64 `json:"amounts,omitempty"`
	IsHeader    bool               `json:"is_header"`
	IsBold      bool               `json:"is_bold"`
	IndentLevel int                `json:"indent_level"`
	Type        string             `json:"type"`
}

// ProfitLossVM is the wire shape of the assembled P&L statement.
type ProfitLossVM struct {
	ReportTitle string                        `json:"report_title"`
	PeriodEnd   string                        `json:"period_end_date"`
	Data        []RowVM                       `json:"data"`
	Summary     map[string]map[string]float64 `json:"summary"`
}

// BalanceSheetVM is the wire shape of the assembled balance sheet.
type BalanceSheetVM struct {
	ReportTitle string             `json:"report_title"`
	PeriodEnd   string             `json:"period_end_date"`
	Variant     string             `json:"variant"`
	Data        []RowVM            `json:"data"`
	Summary     map[string]float64 `json:"summary"`
	Balances    bool               `json:"balances"`
	Difference  float64            `json:"difference"`
}

func variantMap(vs report.VariantSet, variants []report.Variant) map[string]float64 {
	out := make(map[string]float64, len(variants))
	for _, v := range variants {
		out[v.String()] = vs.Get(v)
	}
	return out
}

func rowVMs(rows []report.Row, variants []report.Variant) []RowVM {
	out := make([]RowVM, 0, len(rows))
	for _, row := range rows {
		vm := RowVM{
			Name:        row.Name,
			IsHeader:    row.IsHeader,
			IsBold:      row.IsBold,
			IndentLevel: row.IndentLevel,
			Type:        string(row.Type),
		}
		if row.Amounts != nil {
			vm.Amounts = variantMap(*row.Amounts, variants)
		}
		out = append(out, vm)
	}
	return out
}

// NewProfitLossVM converts the domain report into its wire shape.
func NewProfitLossVM(r report.ProfitLossReport) ProfitLossVM {
	return ProfitLossVM{
		ReportTitle: r.Title,
		PeriodEnd:   r.PeriodEnd.Format(shared.PeriodEndLayout),
		Data:        rowVMs(r.Rows, r.Variants),
		Summary: map[string]map[string]float64{
			"total_revenue":     variantMap(r.Summary.TotalRevenue, r.Variants),
			"gross_profit":      variantMap(r.Summary.GrossProfit, r.Variants),
			"ebitda":            variantMap(r.Summary.EBITDA, r.Variants),
			"operating_profit":  variantMap(r.Summary.OperatingProfit, r.Variants),
			"profit_before_tax": variantMap(r.Summary.ProfitBeforeTax, r.Variants),
			"net_profit":        variantMap(r.Summary.NetProfit, r.Variants),
		},
	}
}

// NewBalanceSheetVM converts the domain report into its wire shape.
func NewBalanceSheetVM(r report.BalanceSheetReport) BalanceSheetVM {
	summary := make(map[string]float64, len(r.Summary.SectionTotals)+2)
	for lineID, amount := range r.Summary.SectionTotals {
		summary[lineID] = amount
	}
	summary["total_assets"] = r.Summary.TotalAssets
	summary["total_liabilities_equity"] = r.Summary.TotalLiabEquity

	return BalanceSheetVM{
		ReportTitle: r.Title,
		PeriodEnd:   r.PeriodEnd.Format(shared.PeriodEndLayout),
		Variant:     r.Variant.String(),
		Data:        rowVMs(r.Rows, []report.Variant{r.Variant}),
		Summary:     summary,
		Balances:    r.Balances,
		Difference:  r.Difference,
	}
}
