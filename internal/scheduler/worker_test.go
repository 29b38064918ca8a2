package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"estate_crm_backend/internal/adapters/storage"
	"estate_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

func TestStorageCleanupRemovesObject(t *testing.T) {
	ctx := context.Background()
	svc := storage.NewMemoryService("")
	if err := svc.UploadFile(ctx, "crm", "leads_documents/orphan.pdf", "application/pdf", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("seed: %v", err)
	}

	task, err := NewStorageCleanupTask(StorageCleanupPayload{Bucket: "crm", ObjectKey: "leads_documents/orphan.pdf", LeadID: "lead-1"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	w := newWorker(svc, logger.Discard())
	if err := w.handleStorageCleanup(ctx, task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.Len("crm") != 0 {
		t.Fatal("expected orphan to be deleted")
	}

	if err := w.handleStorageCleanup(ctx, task); err != nil {
		t.Fatalf("expected already-deleted object to succeed, got %v", err)
	}
}

func TestStorageCleanupRetriesOnFailure(t *testing.T) {
	svc := storage.NewMemoryService("")
	svc.FailDeletes = errors.New("timeout")

	task, _ := NewStorageCleanupTask(StorageCleanupPayload{Bucket: "crm", ObjectKey: "k"})
	if err := newWorker(svc, logger.Discard()).handleStorageCleanup(context.Background(), task); err == nil {
		t.Fatal("expected error so asynq retries the task")
	}
}

func TestStorageCleanupSkipsRetryOnBadPayload(t *testing.T) {
	task := asynq.NewTask(TaskStorageCleanup, []byte("{"))
	err := newWorker(storage.NewMemoryService(""), logger.Discard()).handleStorageCleanup(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestNewStorageCleanupTaskRequiresKey(t *testing.T) {
	if _, err := NewStorageCleanupTask(StorageCleanupPayload{Bucket: "crm"}); err == nil {
		t.Fatal("expected error for missing object key")
	}
}
