package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/challan-admin/challan-admin/internal/app"
	"github.com/challan-admin/challan-admin/internal/auth"
	"github.com/challan-admin/challan-admin/internal/dashboard"
	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/liststore"
	"github.com/challan-admin/challan-admin/internal/observability"
	"github.com/challan-admin/challan-admin/internal/platform/cache"
	"github.com/challan-admin/challan-admin/internal/platform/db"
	"github.com/challan-admin/challan-admin/internal/records"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/users"
	"github.com/challan-admin/challan-admin/internal/view"
	"github.com/challan-admin/challan-admin/jobs"
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
	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, "challan_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(auth.NewRepository(dbpool))
	created, err := authService.EnsureBootstrap(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword)
	if err != nil {
		logger.Error("bootstrap admin", slog.Any("error", err))
		os.Exit(1)
	}
	if created {
		logger.Info("bootstrap admin created", slog.String("username", cfg.BootstrapUsername))
	}
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	remoteClient := remote.NewClient(remote.Config{
		BaseURL:     cfg.APIURL,
		TokenSecret: cfg.RemoteTokenSecret,
		TokenTTL:    cfg.RemoteTokenTTL,
		HTTPClient:  &http.Client{Timeout: cfg.AppRequestTimeout},
		Recorder:    metrics,
		Logger:      logger,
	})
	listOpts := listview.Options{PageSize: cfg.ListPageSize, Observer: metrics}

	userFetcher := users.NewFetcher(remoteClient)
	usersService := users.NewService(
		liststore.NewStore[users.User](redisClient, users.EntityName, cfg.ListStateTTL),
		userFetcher, auditLogger, listOpts, logger)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, cfg.ListPageSize)

	recordFetcher := records.NewFetcher(remoteClient)
	recordsService := records.NewService(records.ServiceParams{
		Store:       liststore.NewStore[records.Record](redisClient, records.EntityName, cfg.ListStateTTL),
		Fetcher:     recordFetcher,
		Deleter:     remoteClient,
		Idempotency: idempotencyStore,
		Audit:       auditLogger,
		Options:     listOpts,
		Logger:      logger,
	})
	recordsHandler := records.NewHandler(logger, recordsService, templates, csrfManager, cfg.ListPageSize)

	dashboardService := dashboard.NewService(
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		dashboard.TotalOf(userFetcher, users.Entity()),
		dashboard.TotalOf(recordFetcher, records.Entity()),
		logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, usersService, recordsService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	if _, err := jobClient.EnqueueDashboardRefresh(ctx); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Warn("enqueue dashboard refresh", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		UsersHandler:     usersHandler,
		RecordsHandler:   recordsHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
