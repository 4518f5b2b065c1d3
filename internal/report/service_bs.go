package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ferretmix/ferretmix/internal/shared"
)

// BalanceSheetService assembles the balance sheet statement.
type BalanceSheetService struct {
	aggregator     *Aggregator
	templates      TemplateSource
	profitLoss     *ProfitLossService
	reservesLineID string
	logger         *slog.Logger
}

// NewBalanceSheetService constructs a balance sheet service. reservesLineID
// names the equity line that absorbs the period's P&L result; it is
// configuration, not a template literal.
func NewBalanceSheetService(aggregator *Aggregator, templates TemplateSource, profitLoss *ProfitLossService, reservesLineID string, logger *slog.Logger) *BalanceSheetService {
	return &BalanceSheetService{
		aggregator:     aggregator,
		templates:      templates,
		profitLoss:     profitLoss,
		reservesLineID: reservesLineID,
		logger:         logger,
	}
}

// Build renders the balance sheet for one company, period and variant.
// Retained earnings live in the profit & loss mapping, so the current
// period's net profit is folded into the configured reserves line before
// the walk. An unbalanced sheet is a valid result with Balances=false.
func (s *BalanceSheetService) Build(ctx context.Context, company string, periodEnd time.Time, variant Variant) (BalanceSheetReport, error) {
	if s == nil || s.aggregator == nil || s.templates == nil || s.profitLoss == nil {
		return BalanceSheetReport{}, errors.New("report: balance sheet service not initialised")
	}
	if strings.TrimSpace(company) == "" {
		return BalanceSheetReport{}, fmt.Errorf("report: company required")
	}
	if periodEnd.IsZero() {
		return BalanceSheetReport{}, fmt.Errorf("report: period end date required")
	}
	if !pointInTimeVariant(variant) {
		return BalanceSheetReport{}, fmt.Errorf("%w: %s", ErrVariantNotSupported, variant)
	}

	tpl, err := s.templates.Load(shared.ReportBalanceSheet)
	if err != nil {
		return BalanceSheetReport{}, err
	}

	amounts, err := s.aggregator.Aggregate(ctx, shared.ReportBalanceSheet, company, periodEnd)
	if err != nil {
		return BalanceSheetReport{}, err
	}

	// Profit fold: reads P&L data fresh each call, never accumulates.
	netProfit, err := s.profitLoss.netProfit(ctx, company, periodEnd)
	if err != nil {
		return BalanceSheetReport{}, err
	}
	reserves := amounts[s.reservesLineID]
	for _, v := range BalanceSheetVariants {
		reserves.Add(v, netProfit.Get(v))
	}
	amounts[s.reservesLineID] = reserves

	walk := walkTemplate(tpl, amounts, []Variant{variant}, true)

	totalAssets := walk.totals["total_assets"].Get(variant)
	totalLiabEquity := walk.totals["total_liab_equity"].Get(variant)
	difference := totalAssets - totalLiabEquity

	sectionTotals := make(map[string]float64, len(walk.totals))
	for lineID, vs := range walk.totals {
		sectionTotals[lineID] = vs.Get(variant)
	}

	report := BalanceSheetReport{
		Title:     tpl.ReportName,
		PeriodEnd: periodEnd,
		Variant:   variant,
		Rows:      walk.rows,
		Summary: BalanceSheetSummary{
			TotalAssets:     totalAssets,
			TotalLiabEquity: totalLiabEquity,
			SectionTotals:   sectionTotals,
		},
		Balances:   math.Abs(difference) < balanceTolerance,
		Difference: difference,
	}

	if s.logger != nil {
		s.logger.Info("balance sheet built",
			slog.String("company", company),
			slog.Time("period_end", periodEnd),
			slog.String("variant", variant.String()),
			slog.Float64("total_assets", totalAssets),
			slog.Float64("total_liab_equity", totalLiabEquity),
			slog.Bool("balances", report.Balances),
		)
	}

	return report, nil
}

func pointInTimeVariant(v Variant) bool {
	for _, candidate := range BalanceSheetVariants {
		if v == candidate {
			return true
		}
	}
	return false
}
