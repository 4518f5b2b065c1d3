package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ferretmix/ferretmix/internal/shared"
)

// ProfitLossService assembles the profit & loss statement.
type ProfitLossService struct {
	aggregator *Aggregator
	templates  TemplateSource
	logger     *slog.Logger
}

// NewProfitLossService constructs a P&L service.
func NewProfitLossService(aggregator *Aggregator, templates TemplateSource, logger *slog.Logger) *ProfitLossService {
	return &ProfitLossService{aggregator: aggregator, templates: templates, logger: logger}
}

// Build renders the P&L statement for one company and period. All six
// variants are carried in lock-step: every emitted line holds actual,
// budget, prior year and their year-to-date counterparts at once.
func (s *ProfitLossService) Build(ctx context.Context, company string, periodEnd time.Time) (ProfitLossReport, error) {
	if s == nil || s.aggregator == nil || s.templates == nil {
		return ProfitLossReport{}, errors.New("report: profit loss service not initialised")
	}
	if strings.TrimSpace(company) == "" {
		return ProfitLossReport{}, fmt.Errorf("report: company required")
	}
	if periodEnd.IsZero() {
		return ProfitLossReport{}, fmt.Errorf("report: period end date required")
	}

	tpl, err := s.templates.Load(shared.ReportProfitLoss)
	if err != nil {
		return ProfitLossReport{}, err
	}

	amounts, err := s.aggregator.Aggregate(ctx, shared.ReportProfitLoss, company, periodEnd)
	if err != nil {
		return ProfitLossReport{}, err
	}

	walk := walkTemplate(tpl, amounts, ProfitLossVariants, false)
	derived := deriveProfitTotals(walk.totals)

	rows := walk.rows
	calculated := []struct {
		name   string
		amount VariantSet
		final  bool
	}{
		{"GROSS PROFIT", derived.GrossProfit, false},
		{"EBITDA", derived.EBITDA, false},
		{"OPERATING PROFIT (EBIT)", derived.OperatingProfit, false},
		{"PROFIT BEFORE TAX", derived.ProfitBeforeTax, false},
		{"NET PROFIT", derived.NetProfit, true},
	}
	for i, c := range calculated {
		rowType := RowCalculatedTotal
		if c.final {
			rowType = RowFinalTotal
		}
		rows = append(rows, amountRow(c.name, c.amount, rowType, 0, true))
		if i < len(calculated)-1 {
			rows = append(rows, blankRow())
		}
	}

	report := ProfitLossReport{
		Title:     tpl.ReportName,
		PeriodEnd: periodEnd,
		Variants:  ProfitLossVariants,
		Rows:      rows,
		Summary: ProfitLossSummary{
			TotalRevenue:    walk.totals["total_revenue"],
			GrossProfit:     derived.GrossProfit,
			EBITDA:          derived.EBITDA,
			OperatingProfit: derived.OperatingProfit,
			ProfitBeforeTax: derived.ProfitBeforeTax,
			NetProfit:       derived.NetProfit,
		},
	}

	if s.logger != nil {
		s.logger.Info("profit loss built",
			slog.String("company", company),
			slog.Time("period_end", periodEnd),
			slog.Int("rows", len(report.Rows)),
			slog.Float64("net_profit", derived.NetProfit.Get(VariantActual)),
		)
	}

	return report, nil
}

// netProfit exposes the variant-wise net profit for the balance sheet fold.
func (s *ProfitLossService) netProfit(ctx context.Context, company string, periodEnd time.Time) (VariantSet, error) {
	tpl, err := s.templates.Load(shared.ReportProfitLoss)
	if err != nil {
		return VariantSet{}, err
	}
	amounts, err := s.aggregator.Aggregate(ctx, shared.ReportProfitLoss, company, periodEnd)
	if err != nil {
		return VariantSet{}, err
	}
	walk := walkTemplate(tpl, amounts, ProfitLossVariants, false)
	return deriveProfitTotals(walk.totals).NetProfit, nil
}
