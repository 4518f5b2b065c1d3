package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/mapping"
	"github.com/ferretmix/ferretmix/internal/shared"
)

func newPLService(facts *fakeFacts, resolvers *fakeResolvers) *ProfitLossService {
	agg := NewAggregator(facts, resolvers, nil)
	return NewProfitLossService(agg, NewTemplateStore(), nil)
}

func TestProfitLossBuild(t *testing.T) {
	periodEnd := date(2024, time.March, 31)
	facts := &fakeFacts{facts: map[ledger.DataType][]ledger.Fact{
		ledger.DataTypeActual: {
			fact("4000", periodEnd, -1000, ledger.DataTypeActual),
			fact("5000", periodEnd, 400, ledger.DataTypeActual),
			fact("6000", periodEnd, 250, ledger.DataTypeActual),
			fact("8500", periodEnd, 30, ledger.DataTypeActual),
		},
	}}
	resolvers := &fakeResolvers{mappings: map[string][]mapping.Mapping{
		shared.ReportProfitLoss: plMappings(),
	}}

	rep, err := newPLService(facts, resolvers).Build(context.Background(), "acme", periodEnd)
	require.NoError(t, err)

	assert.Equal(t, "Profit & Loss Statement", rep.Title)
	assert.Equal(t, ProfitLossVariants, rep.Variants)

	assert.Equal(t, 1000.0, rep.Summary.TotalRevenue.Get(VariantActual))
	assert.Equal(t, 600.0, rep.Summary.GrossProfit.Get(VariantActual))
	assert.Equal(t, 350.0, rep.Summary.EBITDA.Get(VariantActual))
	assert.Equal(t, 350.0, rep.Summary.OperatingProfit.Get(VariantActual))
	assert.Equal(t, 350.0, rep.Summary.ProfitBeforeTax.Get(VariantActual))
	assert.Equal(t, 320.0, rep.Summary.NetProfit.Get(VariantActual))
}

func TestProfitLossCalculatedRowsOrdering(t *testing.T) {
	periodEnd := date(2024, time.March, 31)
	facts := &fakeFacts{facts: map[ledger.DataType][]ledger.Fact{
		ledger.DataTypeActual: {fact("4000", periodEnd, -100, ledger.DataTypeActual)},
	}}
	resolvers := &fakeResolvers{mappings: map[string][]mapping.Mapping{
		shared.ReportProfitLoss: plMappings(),
	}}

	rep, err := newPLService(facts, resolvers).Build(context.Background(), "acme", periodEnd)
	require.NoError(t, err)

	var calculated []Row
	for _, row := range rep.Rows {
		if row.Type == RowCalculatedTotal || row.Type == RowFinalTotal {
			calculated = append(calculated, row)
		}
	}
	require.Len(t, calculated, 5)
	assert.Equal(t, "GROSS PROFIT", calculated[0].Name)
	assert.Equal(t, "EBITDA", calculated[1].Name)
	assert.Equal(t, "OPERATING PROFIT (EBIT)", calculated[2].Name)
	assert.Equal(t, "PROFIT BEFORE TAX", calculated[3].Name)
	assert.Equal(t, "NET PROFIT", calculated[4].Name)
	assert.Equal(t, RowFinalTotal, calculated[4].Type)
	for _, row := range calculated {
		assert.True(t, row.IsBold)
	}
}

func TestProfitLossBudgetOnlyScenario(t *testing.T) {
	periodEnd := date(2024, time.March, 31)
	facts := &fakeFacts{facts: map[ledger.DataType][]ledger.Fact{
		ledger.DataTypeBudget: {
			fact("4000", periodEnd, -2000, ledger.DataTypeBudget),
		},
	}}
	resolvers := &fakeResolvers{mappings: map[string][]mapping.Mapping{
		shared.ReportProfitLoss: plMappings(),
	}}

	rep, err := newPLService(facts, resolvers).Build(context.Background(), "acme", periodEnd)
	require.NoError(t, err)

	// No actual data at all still renders, with zero-valued actual columns.
	assert.Equal(t, 2000.0, rep.Summary.NetProfit.Get(VariantBudget))
	assert.Zero(t, rep.Summary.NetProfit.Get(VariantActual))
	assert.Zero(t, rep.Summary.NetProfit.Get(VariantPriorYear))
}

func TestProfitLossValidatesInput(t *testing.T) {
	svc := newPLService(&fakeFacts{}, &fakeResolvers{})

	_, err := svc.Build(context.Background(), "", date(2024, time.March, 31))
	require.Error(t, err)

	_, err = svc.Build(context.Background(), "acme", time.Time{})
	require.Error(t, err)
}
