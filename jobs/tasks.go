// Package jobs defines the background task types and their handlers.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-builds report view models into the cache.
	TaskReportWarmup = "report:warmup"
	// TaskUnmappedScan surfaces GL codes without a report mapping.
	TaskUnmappedScan = "ledger:unmapped_scan"
)

// ReportWarmupPayload narrows the warmup to one company and period. Empty
// fields mean every company at its latest period.
type ReportWarmupPayload struct {
	Company   string `json:"company,omitempty"`
	PeriodEnd string `json:"period_end_date,omitempty"`
}

// NewReportWarmupTask constructs a report warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// UnmappedScanPayload narrows the scan to one report type. Empty means both.
type UnmappedScanPayload struct {
	ReportType string `json:"report_type,omitempty"`
}

// NewUnmappedScanTask constructs an unmapped scan task.
func NewUnmappedScanTask(payload UnmappedScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUnmappedScan, data), nil
}
