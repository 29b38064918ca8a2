// Package idempotency records client request tokens so a retried request can
// be answered from the first attempt instead of repeating its side effects.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a token is remembered when none is configured.
const DefaultTTL = 24 * time.Hour

// State describes what Begin found for a token.
type State int

const (
	// StateNew means the token was unknown and is now reserved by the caller.
	StateNew State = iota
	// StatePending means another request holds the token and has not finished.
	StatePending
	// StateDone means a previous request finished; Result holds its outcome.
	StateDone
)

// ErrEmptyKey is returned when a token is blank.
var ErrEmptyKey = errors.New("idempotency key is empty")

// Record is the outcome of Begin.
type Record struct {
	State  State
	Result string
}

// Store reserves, completes and releases request tokens.
type Store interface {
	// Begin reserves scope/key if it is unknown. Otherwise it reports the
	// state left by the earlier request.
	Begin(ctx context.Context, scope, key string) (Record, error)
	// Complete marks the reservation as finished with result.
	Complete(ctx context.Context, scope, key, result string) error
	// Abort releases the reservation so the token can be retried.
	Abort(ctx context.Context, scope, key string) error
}

func storageKey(scope, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return "idempotency:" + scope + ":" + key, nil
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-process token store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Begin(_ context.Context, scope, key string) (Record, error) {
	k, err := storageKey(scope, key)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[k]; ok && now.Before(entry.expiresAt) {
		return entry.record, nil
	}

	s.entries[k] = memoryEntry{record: Record{State: StatePending}, expiresAt: now.Add(s.ttl)}
	return Record{State: StateNew}, nil
}

func (s *MemoryStore) Complete(_ context.Context, scope, key, result string) error {
	k, err := storageKey(scope, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = memoryEntry{record: Record{State: StateDone, Result: result}, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Abort(_ context.Context, scope, key string) error {
	k, err := storageKey(scope, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, k)
	return nil
}
