package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	rec, err := store.Begin(ctx, "lead-1", "token-a")
	if err != nil || rec.State != StateNew {
		t.Fatalf("expected new reservation, got %+v err=%v", rec, err)
	}

	rec, err = store.Begin(ctx, "lead-1", "token-a")
	if err != nil || rec.State != StatePending {
		t.Fatalf("expected pending reservation, got %+v err=%v", rec, err)
	}

	if rec, _ := store.Begin(ctx, "lead-2", "token-a"); rec.State != StateNew {
		t.Fatalf("expected tokens to be scoped per lead, got %+v", rec)
	}

	if err := store.Complete(ctx, "lead-1", "token-a", "https://cdn.example.com/doc.pdf"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	rec, err = store.Begin(ctx, "lead-1", "token-a")
	if err != nil || rec.State != StateDone || rec.Result != "https://cdn.example.com/doc.pdf" {
		t.Fatalf("expected completed record, got %+v err=%v", rec, err)
	}

	if rec, _ := store.Begin(ctx, "lead-1", "token-b"); rec.State != StateNew {
		t.Fatalf("expected second token to be new, got %+v", rec)
	}
	if err := store.Abort(ctx, "lead-1", "token-b"); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if rec, _ := store.Begin(ctx, "lead-1", "token-b"); rec.State != StateNew {
		t.Fatalf("expected aborted token to be reusable, got %+v", rec)
	}

	if _, err := store.Begin(ctx, "lead-1", "  "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisStoreExpiresTokens(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "lead-1", "token"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	rec, err := store.Begin(ctx, "lead-1", "token")
	if err != nil || rec.State != StateNew {
		t.Fatalf("expected expired token to be new again, got %+v err=%v", rec, err)
	}
}

func TestMemoryStoreExpiresTokens(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	if _, err := store.Begin(context.Background(), "lead-1", "token"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	now = now.Add(2 * time.Minute)

	if rec, _ := store.Begin(context.Background(), "lead-1", "token"); rec.State != StateNew {
		t.Fatalf("expected expired token to be new again, got %+v", rec)
	}
}
