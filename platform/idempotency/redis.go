package idempotency

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	valuePending = "pending"
	prefixDone   = "done:"
)

// RedisStore keeps tokens in Redis so retries are recognised across replicas.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient builds a client from a redis:// or rediss:// URL.
func NewRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if tlsInsecure {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

func (s *RedisStore) Begin(ctx context.Context, scope, key string) (Record, error) {
	k, err := storageKey(scope, key)
	if err != nil {
		return Record{}, err
	}

	reserved, err := s.client.SetNX(ctx, k, valuePending, s.ttl).Result()
	if err != nil {
		return Record{}, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if reserved {
		return Record{State: StateNew}, nil
	}

	value, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		reserved, err = s.client.SetNX(ctx, k, valuePending, s.ttl).Result()
		if err != nil {
			return Record{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if reserved {
			return Record{State: StateNew}, nil
		}
		return Record{State: StatePending}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read idempotency key: %w", err)
	}

	if result, ok := strings.CutPrefix(value, prefixDone); ok {
		return Record{State: StateDone, Result: result}, nil
	}
	return Record{State: StatePending}, nil
}

func (s *RedisStore) Complete(ctx context.Context, scope, key, result string) error {
	k, err := storageKey(scope, key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, k, prefixDone+result, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) Abort(ctx context.Context, scope, key string) error {
	k, err := storageKey(scope, key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
