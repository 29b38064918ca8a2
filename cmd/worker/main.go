package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting cleanup worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName(), "storage", cfg.StorageDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageSvc, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	defer func() { _ = closeStorage() }()

	if err := retry.Do(ctx, log, "ensure documents bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetStorageBucket())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetStorageBucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, storageSvc, log)
	if err != nil {
		log.Error("failed to initialize cleanup worker", "error", err)
		panic("failed to initialize cleanup worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("cleanup worker stopped")
}
