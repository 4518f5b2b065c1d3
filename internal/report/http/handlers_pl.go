package http

import (
	"context"
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

// ProfitLossHandler wires HTTP interactions for the P&L report.
type ProfitLossHandler struct {
	logger    *slog.Logger
	service   *report.ProfitLossService
	cache     *cache.Versioned
	rateLimit func(http.Handler) http.Handler
}

// NewProfitLossHandler constructs a new P&L handler.
func NewProfitLossHandler(logger *slog.Logger, service *report.ProfitLossService, cache *cache.Versioned) (*ProfitLossHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("report pl handler: service required")
	}
	limiter := httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	return &ProfitLossHandler{
		logger:    logger,
		service:   service,
		cache:     cache,
		rateLimit: limiter,
	}, nil
}

// MountRoutes registers the profit & loss endpoints.
func (h *ProfitLossHandler) MountRoutes(r chi.Router) {
	r.Get("/reports/profit-loss", h.HandleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/profit-loss/export.csv", h.HandleExportCSV)
	})
}

// HandleGet serves the assembled P&L statement as JSON.
func (h *ProfitLossHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filters, err := parseReportFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vm, err := h.viewModel(r.Context(), filters)
	if err != nil {
		h.logger.Error("profit loss build failed",
			slog.String("company", filters.Company),
			slog.String("period", filters.periodString()),
			slog.String("error", err.Error()),
		)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

// HandleExportCSV streams the P&L statement as a CSV download.
func (h *ProfitLossHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := parseReportFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vm, err := h.viewModel(r.Context(), filters)
	if err != nil {
		h.logger.Error("profit loss export failed",
			slog.String("company", filters.Company),
			slog.String("period", filters.periodString()),
			slog.String("error", err.Error()),
		)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", csvAttachment("profit_loss", filters))
	if err := writeProfitLossCSV(w, vm, filters, profitLossCSVVariants); err != nil {
		h.logger.Error("profit loss csv stream failed", slog.String("error", err.Error()))
	}
}

// WarmCache builds and stores the view model for one scope, using the same
// key the request path uses.
func (h *ProfitLossHandler) WarmCache(ctx context.Context, company string, periodEnd time.Time) error {
	_, err := h.viewModel(ctx, reportFilters{Company: company, PeriodEnd: periodEnd})
	return err
}

func (h *ProfitLossHandler) viewModel(ctx context.Context, filters reportFilters) (ProfitLossVM, error) {
	key, err := h.cache.BuildKey(ctx, "report", "pl", filters.Company, filters.periodString())
	if err != nil {
		h.logger.Warn("report cache unavailable", slog.String("error", err.Error()))
		rep, err := h.service.Build(ctx, filters.Company, filters.PeriodEnd)
		if err != nil {
			return ProfitLossVM{}, err
		}
		return NewProfitLossVM(rep), nil
	}

	result, err, _ := singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
		var vm ProfitLossVM
		hit, err := h.cache.FetchJSON(ctx, key, &vm, func(ctx context.Context) (interface{}, error) {
			recordCacheMiss("pl", filters.Company, filters.periodString())
			start := time.Now()
			defer func(start time.Time) {
				observeVMBuildDuration("pl", filters.Company, filters.periodString(), time.Since(start))
			}(start)
			rep, err := h.service.Build(ctx, filters.Company, filters.PeriodEnd)
			if err != nil {
				return nil, err
			}
			return NewProfitLossVM(rep), nil
		})
		if err != nil {
			return nil, err
		}
		if hit {
			recordCacheHit("pl", filters.Company, filters.periodString())
		}
		return vm, nil
	})
	if err != nil {
		return ProfitLossVM{}, err
	}
	vm, ok := result.(ProfitLossVM)
	if !ok {
		return ProfitLossVM{}, fmt.Errorf("report pl handler: unexpected build result %T", result)
	}
	return vm, nil
}
