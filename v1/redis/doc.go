// Package redis provides the Redis client used as the cross-process lock of
// schema migrations.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Client interface: Defines the contract for Redis operations
//   - RedisClient struct: Concrete implementation of the Client interface
//   - NewClient constructor: Returns *RedisClient (concrete type)
//   - FX module: Provides *RedisClient and the configured *Locker
//
// Core Features:
//   - Key operations (Get, SetNX, Delete, TTL)
//   - Distributed locks with SETNX and owner-checked Lua release and refresh
//   - Blocking Locker that refreshes its lock while held
//   - Integration with the logger package and observability hooks
//   - TLS/SSL support for secure connections
//
// # Direct Usage (Without FX)
//
//	client, err := redis.NewClient(redis.Config{
//		Host: "localhost",
//		Port: 6379,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	lock, err := client.AcquireLock(ctx, "jobs:reindex", 30*time.Second)
//	if errors.Is(err, redis.ErrLockNotAcquired) {
//		// someone else is working
//	}
//	defer lock.Release(ctx)
//
// # Migration Lock
//
// Locker blocks until the key is free, retrying every LockRetryInterval.
// Its Lock method returns an unlock function, which is the shape the
// migration manager expects:
//
//	manager := migration.NewManager(store,
//		migration.WithLocker(client.Locker("vecschema:migration-lock", 30*time.Second)))
//
// A held lock is refreshed every third of its TTL, so a crashed process
// releases it after at most one TTL.
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(redis.DefaultConfig()),
//		logger.FXModule,
//		redis.FXModule,
//	)
//
// # Error Handling
//
// Lock contention and lock loss are reported as ErrLockNotAcquired and
// ErrLockNotHeld; IsLockError matches both. Missing keys return Nil.
package redis
