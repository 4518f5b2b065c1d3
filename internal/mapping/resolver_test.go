package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferretmix/ferretmix/internal/shared"
)

func TestResolverResolve(t *testing.T) {
	r := NewResolver([]Mapping{
		{GLCode: "4000", ReportType: shared.ReportProfitLoss, LineID: "sales_revenue", SignMultiplier: -1},
		{GLCode: " 5000 ", ReportType: shared.ReportProfitLoss, LineID: "cost_of_sales", SignMultiplier: 1},
		{GLCode: "", ReportType: shared.ReportProfitLoss, LineID: "ignored", SignMultiplier: 1},
	})

	assert.Equal(t, 2, r.Len())

	ref, ok := r.Resolve("4000")
	assert.True(t, ok)
	assert.Equal(t, "sales_revenue", ref.LineID)
	assert.Equal(t, -1, ref.Sign)

	// Codes are trimmed on both sides of the lookup.
	ref, ok = r.Resolve(" 5000")
	assert.True(t, ok)
	assert.Equal(t, "cost_of_sales", ref.LineID)

	_, ok = r.Resolve("9999")
	assert.False(t, ok)
}

func TestResolverLastMappingWins(t *testing.T) {
	r := NewResolver([]Mapping{
		{GLCode: "4000", LineID: "sales_revenue", SignMultiplier: -1},
		{GLCode: "4000", LineID: "other_income", SignMultiplier: -1},
	})

	ref, ok := r.Resolve("4000")
	assert.True(t, ok)
	assert.Equal(t, "other_income", ref.LineID)
}

func TestNilResolver(t *testing.T) {
	var r *Resolver
	_, ok := r.Resolve("4000")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}
