package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/report"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// reportFilters carries the query parameters shared by the report endpoints.
type reportFilters struct {
	Company   string
	PeriodEnd time.Time
	Variant   report.Variant
}

func parseReportFilters(r *http.Request) (reportFilters, error) {
	q := r.URL.Query()

	company := strings.TrimSpace(q.Get("company"))
	if company == "" {
		return reportFilters{}, fmt.Errorf("%w: company is required", httpx.ErrValidation)
	}

	periodRaw := strings.TrimSpace(q.Get("period"))
	if periodRaw == "" {
		return reportFilters{}, fmt.Errorf("%w: period is required", httpx.ErrValidation)
	}
	periodEnd, err := shared.ParsePeriodEnd(periodRaw)
	if err != nil {
		return reportFilters{}, fmt.Errorf("%w: period must be %s", httpx.ErrValidation, shared.PeriodEndLayout)
	}

	variant := report.VariantActual
	if raw := strings.TrimSpace(q.Get("variant")); raw != "" {
		variant, err = report.ParseVariant(raw)
		if err != nil {
			return reportFilters{}, fmt.Errorf("%w: unknown variant %q", httpx.ErrValidation, raw)
		}
	}

	return reportFilters{Company: company, PeriodEnd: periodEnd, Variant: variant}, nil
}

func (f reportFilters) periodString() string {
	return f.PeriodEnd.Format(shared.PeriodEndLayout)
}
