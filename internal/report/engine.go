package report

// walkResult carries the ordered rows of a template walk plus the flat
// totals table later calculated totals reference by line id.
type walkResult struct {
	rows   []Row
	totals map[string]VariantSet
}

// walkTemplate renders a template against aggregated amounts.
//
// Line items with a zero amount across all requested variants are
// suppressed. When alwaysSectionTotal is false (profit & loss) a section
// with no data renders its header but no total row; a balance sheet always
// emits its section totals so the statement can be checked for balance.
// Derived totals are not computed here: the totals table is handed to a
// separate derivation step once the walk has finished.
func walkTemplate(tpl *Template, amounts Amounts, variants []Variant, alwaysSectionTotal bool) walkResult {
	result := walkResult{
		rows:   make([]Row, 0, 64),
		totals: make(map[string]VariantSet),
	}

	for _, section := range tpl.Sections {
		if section.IsCalculation() {
			continue
		}

		result.rows = append(result.rows, Row{
			Name:        section.Name,
			IsHeader:    true,
			IsBold:      true,
			IndentLevel: 0,
			Type:        RowSectionHeader,
		})

		var sectionTotal VariantSet
		hasData := false

		if len(section.Subsections) > 0 {
			for _, sub := range section.Subsections {
				result.rows = append(result.rows, Row{
					Name:        sub.Name,
					IsHeader:    true,
					IndentLevel: 1,
					Type:        RowSubsectionHeader,
				})

				var subTotal VariantSet
				for _, line := range sub.Lines {
					amount := amounts.Line(line.LineID)
					subTotal = subTotal.Plus(amount)
					if amount.AnyNonZero(variants) {
						result.rows = append(result.rows, amountRow(line.Name, amount, RowLineItem, 2, false))
					}
				}

				sectionTotal = sectionTotal.Plus(subTotal)
				result.totals[sub.TotalLine.LineID] = subTotal
				if subTotal.AnyNonZero(variants) {
					hasData = true
					result.rows = append(result.rows,
						amountRow(sub.TotalLine.Name, subTotal, RowSubsectionTotal, 1, true),
						blankRow(),
					)
				}
			}
		} else {
			for _, line := range section.Lines {
				amount := amounts.Line(line.LineID)
				sectionTotal = sectionTotal.Plus(amount)
				if amount.AnyNonZero(variants) {
					hasData = true
					result.rows = append(result.rows, amountRow(line.Name, amount, RowLineItem, 1, false))
				}
			}
		}

		if section.TotalLine != nil {
			result.totals[section.TotalLine.LineID] = sectionTotal
			if hasData || alwaysSectionTotal {
				result.rows = append(result.rows,
					amountRow(section.TotalLine.Name, sectionTotal, RowSectionTotal, 0, true),
					blankRow(),
				)
			}
		}
	}

	return result
}

func amountRow(name string, amount VariantSet, rowType RowType, indent int, bold bool) Row {
	amounts := amount
	return Row{
		Name:        name,
		Amounts:     &amounts,
		IsBold:      bold,
		IndentLevel: indent,
		Type:        rowType,
	}
}

func blankRow() Row {
	return Row{Type: RowBlank}
}

// derivedTotals are the calculated subtotals of a profit & loss statement.
// Every input defaults to zero when its section is absent from the
// template, so the two-stage revenue/COGS/opex form falls out of the same
// chain.
type derivedTotals struct {
	GrossProfit     VariantSet
	EBITDA          VariantSet
	OperatingProfit VariantSet
	ProfitBeforeTax VariantSet
	NetProfit       VariantSet
}

// deriveProfitTotals computes the P&L subtotal chain as a pure function of
// the totals table produced by the walk.
func deriveProfitTotals(totals map[string]VariantSet) derivedTotals {
	lookup := func(lineID string) VariantSet {
		return totals[lineID]
	}

	gross := lookup("total_revenue").Minus(lookup("total_cost_of_sales"))
	ebitda := gross.Minus(lookup("total_operating_expenses"))
	operating := ebitda.Minus(lookup("total_depreciation"))
	beforeTax := operating.
		Minus(lookup("total_financial_expenses")).
		Minus(lookup("total_other_expenses"))
	net := beforeTax.Minus(lookup("total_tax_expenses"))

	return derivedTotals{
		GrossProfit:     gross,
		EBITDA:          ebitda,
		OperatingProfit: operating,
		ProfitBeforeTax: beforeTax,
		NetProfit:       net,
	}
}
