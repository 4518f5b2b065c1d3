package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ferretmix/ferretmix/internal/platform/cache"
	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/report"
)

// BalanceSheetHandler wires HTTP interactions for the balance sheet report.
type BalanceSheetHandler struct {
	logger    *slog.Logger
	service   *report.BalanceSheetService
	cache     *cache.Versioned
	rateLimit func(http.Handler) http.Handler
}

// NewBalanceSheetHandler constructs a new balance sheet handler.
func NewBalanceSheetHandler(logger *slog.Logger, service *report.BalanceSheetService, cache *cache.Versioned) (*BalanceSheetHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("report bs handler: service required")
	}
	limiter := httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	return &BalanceSheetHandler{
		logger:    logger,
		service:   service,
		cache:     cache,
		rateLimit: limiter,
	}, nil
}

// MountRoutes registers the balance sheet endpoints.
func (h *BalanceSheetHandler) MountRoutes(r chi.Router) {
	r.Get("/reports/balance-sheet", h.HandleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/balance-sheet/export.csv", h.HandleExportCSV)
	})
}

// HandleGet serves the assembled balance sheet as JSON. The variant query
// parameter selects the column; it defaults to actual.
func (h *BalanceSheetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filters, err := parseReportFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vm, err := h.viewModel(r.Context(), filters)
	if err != nil {
		h.logger.Error("balance sheet build failed",
			slog.String("company", filters.Company),
			slog.String("period", filters.periodString()),
			slog.String("variant", filters.Variant.String()),
			slog.String("error", err.Error()),
		)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// HandleExportCSV streams the balance sheet as a CSV download.
func (h *BalanceSheetHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := parseReportFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vm, err := h.viewModel(r.Context(), filters)
	if err != nil {
		h.logger.Error("balance sheet export failed",
			slog.String("company", filters.Company),
			slog.String("period", filters.periodString()),
			slog.String("error", err.Error()),
		)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", csvAttachment("balance_sheet", filters))
	if err := writeBalanceSheetCSV(w, vm, filters); err != nil {
		h.logger.Error("balance sheet csv stream failed", slog.String("error", err.Error()))
	}
}

// WarmCache builds and stores the view model for one scope, using the same
// key the request path uses.
func (h *BalanceSheetHandler) WarmCache(ctx context.Context, company string, periodEnd time.Time, variant report.Variant) error {
	_, err := h.viewModel(ctx, reportFilters{Company: company, PeriodEnd: periodEnd, Variant: variant})
	return err
}

func (h *BalanceSheetHandler) viewModel(ctx context.Context, filters reportFilters) (BalanceSheetVM, error) {
	build := func(ctx context.Context) (interface{}, error) {
		rep, err := h.service.Build(ctx, filters.Company, filters.PeriodEnd, filters.Variant)
		if err != nil {
			if errors.Is(err, report.ErrUnknownVariant) || errors.Is(err, report.ErrVariantNotSupported) {
				return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
			}
			return nil, err
		}
		return NewBalanceSheetVM(rep), nil
	}

	key, err := h.cache.BuildKey(ctx, "report", "bs", filters.Company, filters.periodString(), filters.Variant.String())
	if err != nil {
		h.logger.Warn("report cache unavailable", slog.String("error", err.Error()))
		value, err := build(ctx)
		if err != nil {
			return BalanceSheetVM{}, err
		}
		return value.(BalanceSheetVM), nil
	}

	result, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		var vm BalanceSheetVM
		hit, err := h.cache.FetchJSON(ctx, key, &vm, func(ctx context.Context) (interface{}, error) {
			recordCacheMiss("bs", filters.Company, filters.periodString())
			start := time.Now()
			defer func(start time.Time) {
				observeVMBuildDuration("bs", filters.Company, filters.periodString(), time.Since(start))
			}(start)
			return build(ctx)
		})
		if err != nil {
			return nil, err
		}
		if hit {
			recordCacheHit("bs", filters.Company, filters.periodString())
		}
		return vm, nil
	})
	if err != nil {
		return BalanceSheetVM{}, err
	}
	vm, ok := result.(BalanceSheetVM)
	if !ok {
		return BalanceSheetVM{}, fmt.Errorf("report bs handler: unexpected build result %T", result)
	}
	return vm, nil
}
