package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ferretmix/ferretmix/internal/app"
	jobmetrics "github.com/ferretmix/ferretmix/internal/jobs"
	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/mapping"
	"github.com/ferretmix/ferretmix/internal/platform/cache"
	"github.com/ferretmix/ferretmix/internal/platform/db"
	"github.com/ferretmix/ferretmix/internal/report"
	reporthttp "github.com/ferretmix/ferretmix/internal/report/http"
	"github.com/ferretmix/ferretmix/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Warn("redis unavailable, warmup writes nothing", slog.Any("error", err))
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

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, logger)

	templates := report.NewTemplateStore()
	mappingRepo := mapping.NewRepository(dbpool)
	mappingService := mapping.NewService(mappingRepo)

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

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewReportWarmupJob(ledgerService, plHandler, bsHandler, logger, metrics)
	scanJob := jobs.NewUnmappedScanJob(mappingService, logger, metrics)

	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	scanTask, err := jobs.NewUnmappedScanTask(jobs.UnmappedScanPayload{})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskUnmappedScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
