// Package cache holds short-lived read models in memory or Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"signal-arena/internal/config"
	"signal-arena/internal/observability"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// New builds the Store named by cfg.Backend. A redis store is pinged first.
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		s := NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := s.Client.Ping(ctx).Err(); err != nil {
			_ = s.Client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Fetch returns the JSON value cached under key, or calls load and caches
// its result for ttl. Cache failures fall through to load.
func Fetch[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	if b, ok, err := s.Get(ctx, key); err == nil && ok {
		var v T
		if json.Unmarshal(b, &v) == nil {
			observability.RecordCacheLookup(true)
			return v, nil
		}
	}
	observability.RecordCacheLookup(false)

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		_ = s.Set(ctx, key, b, ttl)
	}
	return v, nil
}

// Invalidate deletes keys, ignoring failures.
func Invalidate(ctx context.Context, s Store, keys ...string) {
	for _, k := range keys {
		_ = s.Delete(ctx, k)
	}
}
