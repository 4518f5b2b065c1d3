package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatTemplate() *Template {
	return &Template{
		ReportName: "Test Statement",
		Sections: []Section{
			{
				Name: "REVENUE",
				Lines: []TemplateLine{
					{LineID: "sales_revenue", Name: "Sales Revenue"},
					{LineID: "other_income", Name: "Other Income"},
				},
				TotalLine: &TemplateLine{LineID: "total_revenue", Name: "TOTAL REVENUE"},
			},
			{
				Name: "OPERATING EXPENSES",
				Lines: []TemplateLine{
					{LineID: "staff_costs", Name: "Staff Costs"},
				},
				TotalLine: &TemplateLine{LineID: "total_operating_expenses", Name: "TOTAL OPERATING EXPENSES"},
			},
			{Name: "GROSS PROFIT", Calculation: "total_revenue - total_cost_of_sales"},
		},
	}
}

func nestedTemplate() *Template {
	return &Template{
		ReportName: "Test Balance Sheet",
		Sections: []Section{
			{
				Name: "ASSETS",
				Subsections: []Subsection{
					{
						Name: "Current Assets",
						Lines: []TemplateLine{
							{LineID: "cash_and_equivalents", Name: "Cash"},
							{LineID: "inventory", Name: "Inventory"},
						},
						TotalLine: TemplateLine{LineID: "total_current_assets", Name: "Total Current Assets"},
					},
					{
						Name: "Fixed Assets",
						Lines: []TemplateLine{
							{LineID: "property_plant_equipment", Name: "PPE"},
						},
						TotalLine: TemplateLine{LineID: "total_fixed_assets", Name: "Total Fixed Assets"},
					},
				},
				TotalLine: &TemplateLine{LineID: "total_assets", Name: "TOTAL ASSETS"},
			},
		},
	}
}

func set(v Variant, amount float64) VariantSet {
	var vs VariantSet
	vs.Add(v, amount)
	return vs
}

func rowNames(rows []Row) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Type == RowBlank {
			names = append(names, "<blank>")
			continue
		}
		names = append(names, r.Name)
	}
	return names
}

func TestWalkSuppressesZeroLines(t *testing.T) {
	amounts := Amounts{
		"sales_revenue": set(VariantActual, 1000),
		"staff_costs":   set(VariantActual, 200),
	}

	walk := walkTemplate(flatTemplate(), amounts, ProfitLossVariants, false)

	names := rowNames(walk.rows)
	assert.NotContains(t, names, "Other Income")
	assert.Contains(t, names, "Sales Revenue")
	assert.Contains(t, names, "TOTAL REVENUE")
}

func TestWalkEmptySectionKeepsHeaderDropsTotal(t *testing.T) {
	amounts := Amounts{
		"sales_revenue": set(VariantActual, 1000),
	}

	walk := walkTemplate(flatTemplate(), amounts, ProfitLossVariants, false)

	names := rowNames(walk.rows)
	assert.Contains(t, names, "OPERATING EXPENSES")
	assert.NotContains(t, names, "TOTAL OPERATING EXPENSES")

	// The totals table still records the zero so derivations never miss a key.
	total, ok := walk.totals["total_operating_expenses"]
	require.True(t, ok)
	assert.Zero(t, total.Get(VariantActual))
}

func TestWalkAlwaysEmitsSectionTotals(t *testing.T) {
	walk := walkTemplate(flatTemplate(), Amounts{}, ProfitLossVariants, true)
	names := rowNames(walk.rows)
	assert.Contains(t, names, "TOTAL REVENUE")
	assert.Contains(t, names, "TOTAL OPERATING EXPENSES")
}

func TestWalkSkipsCalculationSections(t *testing.T) {
	walk := walkTemplate(flatTemplate(), Amounts{}, ProfitLossVariants, true)
	assert.NotContains(t, rowNames(walk.rows), "GROSS PROFIT")
}

func TestWalkSubsections(t *testing.T) {
	amounts := Amounts{
		"cash_and_equivalents": set(VariantActual, 800),
		"inventory":            set(VariantActual, 200),
	}
	variants := []Variant{VariantActual}

	walk := walkTemplate(nestedTemplate(), amounts, variants, true)

	assert.Equal(t, 1000.0, walk.totals["total_current_assets"].Get(VariantActual))
	assert.Equal(t, 0.0, walk.totals["total_fixed_assets"].Get(VariantActual))
	assert.Equal(t, 1000.0, walk.totals["total_assets"].Get(VariantActual))

	names := rowNames(walk.rows)
	assert.Contains(t, names, "Total Current Assets")
	// A subsection with no activity keeps its header but drops its total row.
	assert.Contains(t, names, "Fixed Assets")
	assert.NotContains(t, names, "Total Fixed Assets")

	for _, row := range walk.rows {
		switch row.Type {
		case RowSubsectionHeader:
			assert.Equal(t, 1, row.IndentLevel)
		case RowLineItem:
			assert.Equal(t, 2, row.IndentLevel)
		case RowSectionTotal:
			assert.Equal(t, 0, row.IndentLevel)
		}
	}
}

func TestDeriveProfitTotalsChain(t *testing.T) {
	totals := map[string]VariantSet{
		"total_revenue":            set(VariantActual, 1000),
		"total_cost_of_sales":      set(VariantActual, 400),
		"total_operating_expenses": set(VariantActual, 250),
		"total_depreciation":       set(VariantActual, 50),
		"total_financial_expenses": set(VariantActual, 30),
		"total_other_expenses":     set(VariantActual, 20),
		"total_tax_expenses":       set(VariantActual, 60),
	}

	derived := deriveProfitTotals(totals)

	assert.Equal(t, 600.0, derived.GrossProfit.Get(VariantActual))
	assert.Equal(t, 350.0, derived.EBITDA.Get(VariantActual))
	assert.Equal(t, 300.0, derived.OperatingProfit.Get(VariantActual))
	assert.Equal(t, 250.0, derived.ProfitBeforeTax.Get(VariantActual))
	assert.Equal(t, 190.0, derived.NetProfit.Get(VariantActual))
}

func TestDeriveProfitTotalsMissingKeysDefaultZero(t *testing.T) {
	totals := map[string]VariantSet{
		"total_revenue":            set(VariantActual, 500),
		"total_operating_expenses": set(VariantActual, 100),
	}

	derived := deriveProfitTotals(totals)

	assert.Equal(t, 500.0, derived.GrossProfit.Get(VariantActual))
	assert.Equal(t, 400.0, derived.EBITDA.Get(VariantActual))
	assert.Equal(t, 400.0, derived.NetProfit.Get(VariantActual))
}
