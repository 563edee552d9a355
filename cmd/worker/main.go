package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/clubops/clubcore/internal/app"
	"github.com/clubops/clubcore/internal/audit"
	"github.com/clubops/clubcore/internal/platform/db"
	"github.com/clubops/clubcore/jobs"
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

	auditStore := audit.NewPGStore(pool)
	exportJob := jobs.NewAuditExportJob(auditStore, cfg.ExportStorageDir, logger)
	probeJob := jobs.NewProbeScanJob(auditStore, logger)

	exportTask, err := jobs.NewAuditExportTask(jobs.AuditExportPayload{})
	if err != nil {
		logger.Error("build export task", slog.Any("error", err))
		os.Exit(1)
	}
	probeTask, err := jobs.NewProbeScanTask(24, 5)
	if err != nil {
		logger.Error("build probe task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditExport, Handler: exportJob.Handle},
			{Type: jobs.TaskProbeScan, Handler: probeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: exportTask},
			{Spec: "0 * * * *", Task: probeTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}
