// Package shared holds constants and helpers reused across feature modules.
package shared

import "errors"

// Report types understood by the mapping and report modules.
const (
	ReportProfitLoss   = "profit_loss"
	ReportBalanceSheet = "balance_sheet"
)

// ErrUnknownReportType indicates a report type outside the supported set.
var ErrUnknownReportType = errors.New("unknown report type")

// ValidateReportType checks that the given report type is supported.
func ValidateReportType(reportType string) error {
	switch reportType {
	case ReportProfitLoss, ReportBalanceSheet:
		return nil
	}
	return ErrUnknownReportType
}
