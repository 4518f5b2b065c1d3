// Package report aggregates ledger facts into report lines and assembles
// profit & loss and balance sheet statements from declarative templates.
package report

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant indicates a variant name outside the supported set.
var ErrUnknownVariant = errors.New("report: unknown variant")

// ErrVariantNotSupported indicates a variant the requested statement
// cannot render, such as a year-to-date balance sheet.
var ErrVariantNotSupported = errors.New("report: variant not supported")

// Variant identifies one of the comparison columns a statement carries.
type Variant int

// Statement variants. The YTD variants only apply to profit & loss; a
// balance is a snapshot and has no year-to-date reading.
const (
	VariantActual Variant = iota
	VariantBudget
	VariantPriorYear
	VariantActualYTD
	VariantBudgetYTD
	VariantPriorYearYTD

	variantCount
)

var variantNames = [variantCount]string{
	"actual",
	"budget",
	"prior_year",
	"actual_ytd",
	"budget_ytd",
	"prior_year_ytd",
}

// String returns the wire name of the variant.
func (v Variant) String() string {
	if v < 0 || v >= variantCount {
		return "unknown"
	}
	return variantNames[v]
}

// ParseVariant maps a wire name to its variant.
func ParseVariant(name string) (Variant, error) {
	for i, candidate := range variantNames {
		if candidate == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// ProfitLossVariants is the six-way fan-out every P&L line carries.
var ProfitLossVariants = []Variant{
	VariantActual, VariantBudget, VariantPriorYear,
	VariantActualYTD, VariantBudgetYTD, VariantPriorYearYTD,
}

// BalanceSheetVariants are the point-in-time variants a balance sheet supports.
var BalanceSheetVariants = []Variant{VariantActual, VariantBudget, VariantPriorYear}

// VariantSet carries one amount per variant and is threaded through the
// template walk as a unit, so rendering never branches per variant.
type VariantSet [variantCount]float64

// Get returns the amount for a variant.
func (s VariantSet) Get(v Variant) float64 {
	if v < 0 || v >= variantCount {
		return 0
	}
	return s[v]
}

// Add accumulates an amount into a variant slot.
func (s *VariantSet) Add(v Variant, amount float64) {
	if v < 0 || v >= variantCount {
		return
	}
	s[v] += amount
}

// Plus returns the element-wise sum.
func (s VariantSet) Plus(o VariantSet) VariantSet {
	var out VariantSet
	for i := range s {
		out[i] = s[i] + o[i]
	}
	return out
}

// Minus returns the element-wise difference.
func (s VariantSet) Minus(o VariantSet) VariantSet {
	var out VariantSet
	for i := range s {
		out[i] = s[i] - o[i]
	}
	return out
}

// AnyNonZero reports whether any of the given variants holds a non-zero
// amount. Drives zero-suppression of line items.
func (s VariantSet) AnyNonZero(variants []Variant) bool {
	for _, v := range variants {
		if s.Get(v) != 0 {
			return true
		}
	}
	return false
}

// Amounts maps report line ids to per-variant totals. Line ids with no
// contributing facts are absent; lookups default to zero.
type Amounts map[string]VariantSet

// Line returns the totals for a line id, zero when absent.
func (a Amounts) Line(lineID string) VariantSet {
	return a[lineID]
}
