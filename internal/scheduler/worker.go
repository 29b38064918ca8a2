package scheduler

import (
	"context"
	"errors"
	"fmt"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	storage storage.StorageService
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc storage.StorageService, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(svc, log)
	w.server = server
	return w, nil
}

func newWorker(svc storage.StorageService, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:     mux,
		storage: svc,
		log:     log,
	}
	mux.HandleFunc(TaskStorageCleanup, w.handleStorageCleanup)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("cleanup worker stopped", "error", err)
	}
}

func (w *Worker) handleStorageCleanup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStorageCleanupPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	err = w.storage.DeleteObject(ctx, payload.Bucket, payload.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		w.log.StorageError("cleanup", payload.ObjectKey, err)
		return err
	}

	w.log.Info("orphaned document removed", "bucket", payload.Bucket, "objectKey", payload.ObjectKey, "leadId", payload.LeadID)
	return nil
}
