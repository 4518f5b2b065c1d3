package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ledgerhttp "github.com/ferretmix/ferretmix/internal/ledger/http"
	mappinghttp "github.com/ferretmix/ferretmix/internal/mapping/http"
	"github.com/ferretmix/ferretmix/internal/observability"
	reporthttp "github.com/ferretmix/ferretmix/internal/report/http"
	"github.com/ferretmix/ferretmix/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	LedgerHandler       *ledgerhttp.Handler
	MappingHandler      *mappinghttp.Handler
	ProfitLossHandler   *reporthttp.ProfitLossHandler
	BalanceSheetHandler *reporthttp.BalanceSheetHandler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with FerretMix defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.MappingHandler != nil {
			params.MappingHandler.MountRoutes(r)
		}
		if params.ProfitLossHandler != nil {
			params.ProfitLossHandler.MountRoutes(r)
		}
		if params.BalanceSheetHandler != nil {
			params.BalanceSheetHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
