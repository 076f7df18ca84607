package migration

import (
	"time"

	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: the history collection
//   - subResource: the migration version, empty for history reads
//   - size: changes applied or reversed, or records read
func (m *Manager) observeOperation(operation string, v Version, start time.Time, err error, size int64) {
	if m == nil || m.observer == nil {
		return
	}

	var metadata map[string]interface{}
	if gate := GateOf(err); gate != "" {
		metadata = map[string]interface{}{"gate": string(gate)}
	}

	m.observer.ObserveOperation(observability.OperationContext{
		Component:   "migration",
		Operation:   operation,
		Resource:    m.collection,
		SubResource: v.String(),
		Duration:    time.Since(start),
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}
