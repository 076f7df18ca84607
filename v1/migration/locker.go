package migration

import (
	"context"
	"sync"
)

// Locker serializes Apply and Rollback. Lock blocks until the lock is held or
// ctx is done and returns the function that releases it.
//
// *redis.Locker implements Locker for processes sharing one store.
type Locker interface {
	Lock(ctx context.Context) (unlock func(context.Context) error, err error)
}

// LocalLocker is an in-process Locker. It is the manager's default.
type LocalLocker struct {
	sem chan struct{}
}

// NewLocalLocker returns an unlocked LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context) (func(context.Context) error, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-l.sem })
		return nil
	}, nil
}
