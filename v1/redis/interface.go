package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides the Redis operations used by the migration engine: basic
// key access and an owner-checked distributed lock.
//
// This interface is implemented by the concrete *RedisClient type.
type Client interface {
	// Connection and lifecycle
	Ping(ctx context.Context) error
	Client() redis.UniversalClient
	Close() error

	// Key operations
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Distributed locks
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error)
	Locker(key string, ttl time.Duration) *Locker
}

// compile-time check
var _ Client = (*RedisClient)(nil)
