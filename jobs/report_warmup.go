package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ferretmix/ferretmix/internal/jobs"
	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/report"
	reporthttp "github.com/ferretmix/ferretmix/internal/report/http"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// ReportWarmupJob pre-builds report view models into the cache so the first
// request after an upload does not pay the build cost.
type ReportWarmupJob struct {
	Ledger       *ledger.Service
	ProfitLoss   *reporthttp.ProfitLossHandler
	BalanceSheet *reporthttp.BalanceSheetHandler
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(ledgerSvc *ledger.Service, pl *reporthttp.ProfitLossHandler, bs *reporthttp.BalanceSheetHandler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Ledger:       ledgerSvc,
		ProfitLoss:   pl,
		BalanceSheet: bs,
		Logger:       logger,
		Metrics:      metrics,
	}
}

type warmupScope struct {
	company string
	period  string
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil || j.ProfitLoss == nil || j.BalanceSheet == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	scopes, err := j.scopes(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("load warmup scopes", slog.String("error", err.Error()))
		return resultErr
	}
	if len(scopes) == 0 {
		logger.Info("no scopes discovered for warmup")
		return nil
	}

	warmed := 0
	for _, scope := range scopes {
		periodEnd, err := shared.ParsePeriodEnd(scope.period)
		if err != nil {
			logger.Warn("skipping warmup scope with bad period",
				slog.String("company", scope.company),
				slog.String("period", scope.period),
			)
			continue
		}
		if err := j.ProfitLoss.WarmCache(ctx, scope.company, periodEnd); err != nil {
			resultErr = err
			logger.Error("warm profit loss", slog.String("company", scope.company), slog.String("error", err.Error()))
			return resultErr
		}
		for _, variant := range report.BalanceSheetVariants {
			if err := j.BalanceSheet.WarmCache(ctx, scope.company, periodEnd, variant); err != nil {
				resultErr = err
				logger.Error("warm balance sheet",
					slog.String("company", scope.company),
					slog.String("variant", variant.String()),
					slog.String("error", err.Error()),
				)
				return resultErr
			}
		}
		warmed++
	}

	logger.Info("report warmup finished", slog.Int("scopes", warmed))
	return nil
}

func (j *ReportWarmupJob) scopes(ctx context.Context, payload ReportWarmupPayload) ([]warmupScope, error) {
	if payload.Company != "" && payload.PeriodEnd != "" {
		return []warmupScope{{company: payload.Company, period: payload.PeriodEnd}}, nil
	}

	companies := []string{payload.Company}
	if payload.Company == "" {
		var err error
		companies, err = j.Ledger.Companies(ctx)
		if err != nil {
			return nil, err
		}
	}

	var scopes []warmupScope
	for _, company := range companies {
		if payload.PeriodEnd != "" {
			scopes = append(scopes, warmupScope{company: company, period: payload.PeriodEnd})
			continue
		}
		periods, err := j.Ledger.Periods(ctx, company)
		if err != nil {
			return nil, err
		}
		if len(periods) == 0 {
			continue
		}
		// Periods are listed newest first; warm the latest only.
		scopes = append(scopes, warmupScope{
			company: company,
			period:  periods[0].Format(shared.PeriodEndLayout),
		})
	}
	return scopes, nil
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
