package qdrant

import (
	"time"

	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: the collection name
//   - subResource: the record id for point operations
func (a *Adapter) observeOperation(operation, resource, subResource string, start time.Time, err error, size int64, metadata map[string]interface{}) {
	if a == nil || a.observer == nil {
		return
	}

	a.observer.ObserveOperation(observability.OperationContext{
		Component:   "qdrant",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    time.Since(start),
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}
