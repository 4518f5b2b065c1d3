package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/mapping"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// FactSource supplies raw ledger facts. Date filtering happens here, not in
// the store.
type FactSource interface {
	FactsByCompanyType(ctx context.Context, company string, dataType ledger.DataType) ([]ledger.Fact, error)
}

// ResolverSource supplies the GL code resolver per report type.
type ResolverSource interface {
	ResolverFor(ctx context.Context, reportType string) (*mapping.Resolver, error)
}

// Aggregator folds ledger facts into per-line totals by applying the GL
// mapping with its sign convention. Unmapped codes are silently excluded;
// lines with no activity are simply absent from the result.
type Aggregator struct {
	facts     FactSource
	resolvers ResolverSource
	logger    *slog.Logger
}

// NewAggregator constructs an aggregator.
func NewAggregator(facts FactSource, resolvers ResolverSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{facts: facts, resolvers: resolvers, logger: logger}
}

// variantPlan pairs a stored data type with the variant slots it feeds.
type variantPlan struct {
	dataType ledger.DataType
	point    Variant
	ytd      Variant
}

var variantPlans = []variantPlan{
	{ledger.DataTypeActual, VariantActual, VariantActualYTD},
	{ledger.DataTypeBudget, VariantBudget, VariantBudgetYTD},
	{ledger.DataTypePriorYear, VariantPriorYear, VariantPriorYearYTD},
}

// Aggregate computes per-line totals for one company and period.
//
// Point-in-time selection depends on the report type: a profit & loss
// amount is a monthly flow (same calendar month and year), a balance sheet
// amount is a snapshot (exact date match). Year-to-date slots are only
// filled for profit & loss.
func (a *Aggregator) Aggregate(ctx context.Context, reportType, company string, periodEnd time.Time) (Amounts, error) {
	if a == nil || a.facts == nil || a.resolvers == nil {
		return nil, fmt.Errorf("report: aggregator not initialised")
	}
	if err := shared.ValidateReportType(reportType); err != nil {
		return nil, err
	}

	resolver, err := a.resolvers.ResolverFor(ctx, reportType)
	if err != nil {
		return nil, err
	}

	isBalanceSheet := reportType == shared.ReportBalanceSheet
	amounts := make(Amounts)
	var selected, skipped int

	for _, plan := range variantPlans {
		facts, err := a.facts.FactsByCompanyType(ctx, company, plan.dataType)
		if err != nil {
			return nil, fmt.Errorf("fetch %s facts: %w", plan.dataType, err)
		}
		for _, fact := range facts {
			ref, ok := resolver.Resolve(fact.GLCode)
			if !ok {
				skipped++
				continue
			}
			signed := fact.Amount * float64(ref.Sign)

			inPoint := false
			if isBalanceSheet {
				inPoint = shared.SameDay(fact.PeriodEnd, periodEnd)
			} else {
				inPoint = shared.SameCalendarMonth(fact.PeriodEnd, periodEnd)
			}
			inYTD := !isBalanceSheet && shared.InYearToDate(fact.PeriodEnd, periodEnd)
			if !inPoint && !inYTD {
				continue
			}

			vs := amounts[ref.LineID]
			if inPoint {
				vs.Add(plan.point, signed)
			}
			if inYTD {
				vs.Add(plan.ytd, signed)
			}
			amounts[ref.LineID] = vs
			selected++
		}
	}

	if a.logger != nil {
		a.logger.Debug("aggregation complete",
			slog.String("report_type", reportType),
			slog.String("company", company),
			slog.Time("period_end", periodEnd),
			slog.Int("lines", len(amounts)),
			slog.Int("facts_applied", selected),
			slog.Int("facts_unmapped", skipped),
		)
	}

	return amounts, nil
}
