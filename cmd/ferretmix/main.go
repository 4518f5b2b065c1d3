package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ferretmix/ferretmix/internal/app"
	"github.com/ferretmix/ferretmix/internal/ledger"
	ledgerhttp "github.com/ferretmix/ferretmix/internal/ledger/http"
	"github.com/ferretmix/ferretmix/internal/mapping"
	mappinghttp "github.com/ferretmix/ferretmix/internal/mapping/http"
	"github.com/ferretmix/ferretmix/internal/observability"
	"github.com/ferretmix/ferretmix/internal/platform/cache"
	"github.com/ferretmix/ferretmix/internal/platform/db"
	"github.com/ferretmix/ferretmix/internal/report"
	reporthttp "github.com/ferretmix/ferretmix/internal/report/http"
	"github.com/ferretmix/ferretmix/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports will be built per request", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := cache.NewVersioned(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()
	if err := reporthttp.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("cache metrics setup", slog.Any("error", err))
	}

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerHandler, err := ledgerhttp.NewHandler(logger, ledgerService, reportCache, cfg.MaxUploadBytes)
	if err != nil {
		logger.Error("init ledger handler", slog.Any("error", err))
		os.Exit(1)
	}

	templates := report.NewTemplateStore()

	mappingRepo := mapping.NewRepository(dbpool)
	mappingService := mapping.NewService(mappingRepo)
	mappingHandler, err := mappinghttp.NewHandler(logger, mappingService, templates, reportCache)
	if err != nil {
		logger.Error("init mapping handler", slog.Any("error", err))
		os.Exit(1)
	}

	aggregator := report.NewAggregator(ledgerRepo, mappingService, logger)
	plService := report.NewProfitLossService(aggregator, templates, logger)
	bsService := report.NewBalanceSheetService(aggregator, templates, plService, cfg.ReservesLineID, logger)

	plHandler, err := reporthttp.NewProfitLossHandler(logger, plService, reportCache)
	if err != nil {
		logger.Error("init profit loss handler", slog.Any("error", err))
		os.Exit(1)
	}
	bsHandler, err := reporthttp.NewBalanceSheetHandler(logger, bsService, reportCache)
	if err != nil {
		logger.Error("init balance sheet handler", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		LedgerHandler:       ledgerHandler,
		MappingHandler:      mappingHandler,
		ProfitLossHandler:   plHandler,
		BalanceSheetHandler: bsHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
