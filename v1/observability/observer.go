// Package observability defines the hook through which store adapters and the
// migration manager report each operation they perform.
//
// Components accept an optional Observer (usually via a WithObserver builder)
// and call it once per operation with an OperationContext. The metrics package
// provides a Prometheus-backed implementation; tests typically use a
// recording observer.
//
// Example:
//
//	adapter := qdrant.NewAdapter(client).WithObserver(metricsObserver)
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the emitting package, e.g. "qdrant", "migration", "redis", "minio"
	Component string

	// Operation is the action, e.g. "create_collection", "apply", "lock"
	Operation string

	// Resource is the primary target, e.g. a collection name or a lock key
	Resource string

	// SubResource is an optional secondary target, e.g. a record id or a version
	SubResource string

	// Duration is how long the operation took
	Duration time.Duration

	// Error is the operation's error, nil on success
	Error error

	// Size is an optional byte or item count
	Size int64

	// Metadata carries component-specific details
	Metadata map[string]interface{}
}

// Observer receives operation notifications. Implementations must be safe for
// concurrent use and must not block the caller for long.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }

// Multi fans a notification out to several observers, skipping nil ones.
func Multi(observers ...Observer) Observer {
	return ObserverFunc(func(ctx OperationContext) {
		for _, o := range observers {
			if o != nil {
				o.ObserveOperation(ctx)
			}
		}
	})
}
