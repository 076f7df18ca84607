package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Common Redis errors
var (
	// Nil is returned when a key does not exist.
	Nil = redis.Nil

	// ErrClosed is returned when the client is closed.
	ErrClosed = redis.ErrClosed

	// ErrLockNotAcquired is returned when a lock is held by someone else.
	ErrLockNotAcquired = errors.New("redis: lock not acquired")

	// ErrLockNotHeld is returned when releasing or refreshing a lock that expired
	// or was taken over by another owner.
	ErrLockNotHeld = errors.New("redis: lock not held")
)

// IsNilError checks if the error is a "key does not exist" error.
func IsNilError(err error) bool {
	return errors.Is(err, Nil)
}

// IsClosedError checks if the error is a "client is closed" error.
func IsClosedError(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsLockError checks if the error comes from lock contention or lock loss.
func IsLockError(err error) bool {
	return errors.Is(err, ErrLockNotAcquired) || errors.Is(err, ErrLockNotHeld)
}
