package migration

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// EventType names what happened to a migration.
type EventType string

const (
	EventApplied    EventType = "migration_applied"
	EventRolledBack EventType = "migration_rolled_back"
)

// Event announces a committed schema change to consumers of the store.
type Event struct {
	Type           EventType      `json:"type"`
	Version        Version        `json:"version"`
	Name           string         `json:"name,omitempty"`
	BreakingChange bool           `json:"breaking_change"`
	Changes        []ChangeResult `json:"changes"`
	Collections    []string       `json:"collections"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

func newEvent(t EventType, migration SchemaMigration, changes []ChangeResult) Event {
	seen := make(map[string]bool)
	var collections []string
	for _, c := range changes {
		if c.Collection != "" && !seen[c.Collection] {
			seen[c.Collection] = true
			collections = append(collections, c.Collection)
		}
	}
	return Event{
		Type:           t,
		Version:        migration.Version,
		Name:           migration.Name,
		BreakingChange: migration.Metadata.BreakingChange,
		Changes:        append([]ChangeResult{}, changes...),
		Collections:    collections,
		OccurredAt:     time.Now().UTC(),
	}
}

// EventPublisher receives an Event after each successful Apply and Rollback.
// Publishing happens after the history is written; a failure is logged and
// does not fail the migration.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// EventPublisherFunc adapts a function to EventPublisher.
type EventPublisherFunc func(ctx context.Context, event Event) error

func (f EventPublisherFunc) PublishEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// SendFunc delivers one encoded message. key is the migration version, which
// keeps events of one version on one partition.
type SendFunc func(ctx context.Context, key string, body []byte, headers map[string]interface{}) error

// JSONPublisher encodes events as JSON and sends them with their type,
// version and the current trace context as headers.
//
// Example:
//
//	publisher := migration.NewJSONPublisher(func(ctx context.Context, _ string, body []byte, headers map[string]interface{}) error {
//	    return rabbitClient.Publish(ctx, body, headers)
//	})
type JSONPublisher struct {
	send SendFunc
}

// NewJSONPublisher returns a publisher delivering through send.
func NewJSONPublisher(send SendFunc) *JSONPublisher {
	return &JSONPublisher{send: send}
}

func (p *JSONPublisher) PublishEvent(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	headers := map[string]interface{}{
		"event-type":        string(event.Type),
		"migration-version": event.Version.String(),
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers[k] = v
	}
	return p.send(ctx, event.Version.String(), body, headers)
}
