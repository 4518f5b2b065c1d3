package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ferretmix/ferretmix/internal/jobs"
	"github.com/ferretmix/ferretmix/internal/mapping"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// unmappedLogCap bounds how many codes one scan log line carries.
const unmappedLogCap = 25

// UnmappedScanJob reports loaded GL codes that no mapping covers. Unmapped
// codes are silently excluded from reports, so the scan is the only place
// they become visible.
type UnmappedScanJob struct {
	Mappings *mapping.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewUnmappedScanJob wires dependencies for the scan handler.
func NewUnmappedScanJob(mappings *mapping.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *UnmappedScanJob {
	return &UnmappedScanJob{Mappings: mappings, Logger: logger, Metrics: metrics}
}

// Handle processes unmapped scan tasks.
func (j *UnmappedScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mappings == nil {
		return errors.New("unmapped scan: handler not configured")
	}
	var payload UnmappedScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskUnmappedScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	reportTypes := []string{shared.ReportProfitLoss, shared.ReportBalanceSheet}
	if payload.ReportType != "" {
		if err := shared.ValidateReportType(payload.ReportType); err != nil {
			return asynq.SkipRetry
		}
		reportTypes = []string{payload.ReportType}
	}

	logger := j.logger()
	for _, reportType := range reportTypes {
		codes, err := j.Mappings.Unmapped(ctx, reportType)
		if err != nil {
			resultErr = err
			logger.Error("unmapped scan failed",
				slog.String("report_type", reportType),
				slog.String("error", err.Error()),
			)
			return resultErr
		}
		j.Metrics.SetUnmapped(reportType, len(codes))
		if len(codes) == 0 {
			logger.Info("no unmapped gl codes", slog.String("report_type", reportType))
			continue
		}
		sample := make([]string, 0, unmappedLogCap)
		for _, code := range codes {
			if len(sample) == unmappedLogCap {
				break
			}
			sample = append(sample, code.GLCode)
		}
		logger.Warn("unmapped gl codes found",
			slog.String("report_type", reportType),
			slog.Int("count", len(codes)),
			slog.Any("sample", sample),
		)
	}
	return nil
}

func (j *UnmappedScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
