package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ping checks if the Redis server is reachable and responsive.
func (r *RedisClient) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.client.Ping(ctx).Err()
}

// Get retrieves the value associated with the given key.
// Returns Nil if the key does not exist.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, err := r.client.Get(ctx, key).Result()
	r.observeOperation("get", key, "", time.Since(start), err, int64(len(result)), nil)
	return result, err
}

// SetNX sets the value for the given key only if the key does not exist.
// Returns true if the key was set, false if it already existed.
func (r *RedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, err := r.client.SetNX(ctx, key, value, ttl).Result()
	metadata := map[string]interface{}{"was_set": result}
	if ttl > 0 {
		metadata["ttl"] = ttl.String()
	}
	r.observeOperation("setnx", key, "", time.Since(start), err, 0, metadata)
	return result, err
}

// Delete deletes one or more keys.
// Returns the number of keys that were deleted.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, err := r.client.Del(ctx, keys...).Result()
	resource := ""
	if len(keys) > 0 {
		resource = keys[0]
	}
	r.observeOperation("delete", resource, "", time.Since(start), err, result, map[string]interface{}{
		"key_count": len(keys),
	})
	return result, err
}

// TTL returns the remaining time to live of a key.
func (r *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.client.TTL(ctx, key).Result()
}

// --- Distributed Locks ---

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// refreshScript extends the lock only if the caller still owns it.
var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Lock represents a held distributed lock.
type Lock struct {
	client *RedisClient
	key    string
	value  string
	ttl    time.Duration
}

// AcquireLock tries once to take the lock at key. The lock expires after ttl
// unless refreshed. Returns ErrLockNotAcquired when someone else holds it.
func (r *RedisClient) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	// a random token ensures only the holder can release it
	value := uuid.NewString()

	acquired, err := r.SetNX(ctx, key, value, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
	}

	return &Lock{
		client: r,
		key:    key,
		value:  value,
		ttl:    ttl,
	}, nil
}

// Key returns the locked key.
func (l *Lock) Key() string { return l.key }

// Release releases the distributed lock. Returns ErrLockNotHeld when the
// lock already expired or belongs to another owner.
func (l *Lock) Release(ctx context.Context) error {
	start := time.Now()
	l.client.mu.RLock()
	defer l.client.mu.RUnlock()

	n, err := releaseScript.Run(ctx, l.client.client, []string{l.key}, l.value).Int64()
	l.client.observeOperation("unlock", l.key, "", time.Since(start), err, 0, nil)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLockNotHeld, l.key)
	}
	return nil
}

// Refresh extends the TTL of the lock.
func (l *Lock) Refresh(ctx context.Context) error {
	l.client.mu.RLock()
	defer l.client.mu.RUnlock()

	n, err := refreshScript.Run(ctx, l.client.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to refresh lock %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLockNotHeld, l.key)
	}
	return nil
}

// Locker is a blocking, self-refreshing lock on a single key. Its Lock method
// matches the migration manager's locker contract.
type Locker struct {
	client        *RedisClient
	key           string
	ttl           time.Duration
	retryInterval time.Duration
}

// Locker returns a blocking lock on key. A zero ttl uses the configured LockTTL.
//
// Example:
//
//	manager := migration.NewManager(store,
//	    migration.WithLocker(client.Locker("vecschema:migration-lock", 30*time.Second)))
func (r *RedisClient) Locker(key string, ttl time.Duration) *Locker {
	if key == "" {
		key = r.cfg.LockKey
	}
	if ttl <= 0 {
		ttl = r.cfg.LockTTL
	}
	retry := r.cfg.LockRetryInterval
	if retry <= 0 {
		retry = DefaultLockRetryInterval
	}
	return &Locker{client: r, key: key, ttl: ttl, retryInterval: retry}
}

// Lock blocks until the lock is acquired or ctx is done. While held, the lock
// is refreshed every third of its TTL. The returned function stops the
// refresh and releases the lock.
func (l *Locker) Lock(ctx context.Context) (func(context.Context) error, error) {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		lock, err := l.client.AcquireLock(ctx, l.key, l.ttl)
		if err == nil {
			l.client.observeOperation("lock", l.key, "", time.Since(start), nil, 0, map[string]interface{}{
				"attempts": attempts,
			})
			return l.hold(lock), nil
		}
		if !IsLockError(err) {
			l.client.observeOperation("lock", l.key, "", time.Since(start), err, 0, nil)
			return nil, err
		}

		select {
		case <-ctx.Done():
			err := fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, l.key, ctx.Err())
			l.client.observeOperation("lock", l.key, "", time.Since(start), err, 0, nil)
			return nil, err
		case <-time.After(l.retryInterval):
		}
	}
}

func (l *Locker) hold(lock *Lock) func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
				err := lock.Refresh(ctx)
				cancel()
				if err != nil {
					l.client.logger.Warn("Failed to refresh migration lock", err, map[string]interface{}{
						"key": l.key,
					})
					if IsLockError(err) {
						return
					}
				}
			}
		}
	}()

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			wg.Wait()
			err = lock.Release(ctx)
		})
		return err
	}
}
