package migration

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *eventRecorder) PublishEvent(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func TestManagerPublishesEvents(t *testing.T) {
	ctx := context.Background()
	rec := &eventRecorder{}
	m, _ := newTestManager(t, WithPublisher(rec))

	mig := NewBuilder(v100, "docs").
		BreakingChange().
		CreateCollection(docsConfig()).
		AddIndex("docs", "tenant", IndexKeyword).
		Build()
	_, err := m.Apply(ctx, mig)
	require.NoError(t, err)

	_, err = m.Apply(ctx, mig)
	require.Error(t, err)

	_, err = m.Rollback(ctx, v100)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	applied := rec.events[0]
	assert.Equal(t, EventApplied, applied.Type)
	assert.Equal(t, "1.0.0", applied.Version.String())
	assert.Equal(t, "docs", applied.Name)
	assert.True(t, applied.BreakingChange)
	assert.Len(t, applied.Changes, 2)
	assert.Equal(t, []string{"docs"}, applied.Collections)
	assert.False(t, applied.OccurredAt.IsZero())

	rolledBack := rec.events[1]
	assert.Equal(t, EventRolledBack, rolledBack.Type)
	assert.Equal(t, "docs", rolledBack.Name)
	assert.Equal(t, []ChangeResult{{Kind: KindDeleteCollection, Collection: "docs"}}, rolledBack.Changes)
}

func TestManagerPublishFailureDoesNotFailMigration(t *testing.T) {
	rec := &eventRecorder{err: errors.New("broker down")}
	m, store := newTestManager(t, WithPublisher(rec))

	_, err := m.Apply(context.Background(), NewBuilder(v100, "docs").CreateCollection(docsConfig()).Build())
	require.NoError(t, err)
	assert.Len(t, rec.events, 1)
	assert.Contains(t, collections(t, store), "docs")
}

func TestJSONPublisher(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	ctx, span := provider.Tracer("test").Start(context.Background(), "apply")
	defer span.End()

	var (
		gotKey     string
		gotBody    []byte
		gotHeaders map[string]interface{}
	)
	p := NewJSONPublisher(func(_ context.Context, key string, body []byte, headers map[string]interface{}) error {
		gotKey, gotBody, gotHeaders = key, body, headers
		return nil
	})

	event := newEvent(EventApplied, NewBuilder(v110, "analytics").Build(),
		[]ChangeResult{{Kind: KindCreateCollection, Collection: "analytics"}})
	require.NoError(t, p.PublishEvent(ctx, event))

	assert.Equal(t, "1.1.0", gotKey)
	assert.Equal(t, "migration_applied", gotHeaders["event-type"])
	assert.Equal(t, "1.1.0", gotHeaders["migration-version"])
	assert.Contains(t, gotHeaders, "traceparent")

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventApplied, decoded.Type)
	assert.True(t, decoded.Version.Equal(v110))
	assert.Equal(t, []string{"analytics"}, decoded.Collections)
}

func TestJSONPublisherSendError(t *testing.T) {
	sendErr := errors.New("nack")
	p := NewJSONPublisher(func(context.Context, string, []byte, map[string]interface{}) error { return sendErr })
	err := p.PublishEvent(context.Background(), newEvent(EventRolledBack, NewBuilder(v100, "x").Build(), nil))
	assert.ErrorIs(t, err, sendErr)
}
