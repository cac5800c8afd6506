package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/challan-admin/challan-admin/internal/app"
	"github.com/challan-admin/challan-admin/internal/dashboard"
	"github.com/challan-admin/challan-admin/internal/observability"
	"github.com/challan-admin/challan-admin/internal/platform/cache"
	"github.com/challan-admin/challan-admin/internal/platform/db"
	"github.com/challan-admin/challan-admin/internal/records"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/users"
	"github.com/challan-admin/challan-admin/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	remoteClient := remote.NewClient(remote.Config{
		BaseURL:     cfg.APIURL,
		TokenSecret: cfg.RemoteTokenSecret,
		TokenTTL:    cfg.RemoteTokenTTL,
		HTTPClient:  &http.Client{Timeout: cfg.AppRequestTimeout},
		Recorder:    metrics,
		Logger:      logger,
	})
	dashboardService := dashboard.NewService(
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		dashboard.TotalOf(users.NewFetcher(remoteClient), users.Entity()),
		dashboard.TotalOf(records.NewFetcher(remoteClient), records.Entity()),
		logger)

	refreshJob := jobs.NewDashboardRefreshJob(dashboardService, logger, metrics)
	cleanupJob := jobs.NewCleanupJob(shared.NewIdempotencyStore(pool), logger, metrics)
	cleanupTask, err := jobs.NewCleanupTask(jobs.DefaultRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DashboardCron, Task: jobs.NewDashboardRefreshTask(), Options: jobs.DashboardRefreshOptions()},
			{Spec: "15 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
