package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
	"github.com/Aleph-Alpha/vecschema/v1/tracer"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const instrumentationName = "github.com/Aleph-Alpha/vecschema/v1/migration"

// Manager applies, records and rolls back schema migrations against a
// vectordb.Store. History lives in a reserved collection of the same store,
// one record per applied migration keyed by its version.
//
// Apply and Rollback hold the manager's Locker for their whole duration, so
// validation, changes and the history write of one migration never
// interleave with another.
type Manager struct {
	store          vectordb.Store
	collection     string
	logger         logger.Logger
	tracer         *tracer.Tracer
	observer       observability.Observer
	locker         Locker
	validator      ContractValidator
	archive        ContractArchive
	publisher      EventPublisher
	probeDimension int
}

// NewManager returns a manager over store. Without options it records history
// in DefaultHistoryCollection, validates contracts live against store and
// serializes operations with an in-process lock.
func NewManager(store vectordb.Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		collection: DefaultHistoryCollection,
		logger:     logger.NewNop(),
		locker:     NewLocalLocker(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.validator == nil {
		m.validator = NewLiveValidator(store).
			WithArchive(m.archive).
			WithProbeDimension(m.probeDimension).
			WithLogger(m.logger)
	}
	return m
}

// HistoryCollection returns the name of the reserved history collection.
func (m *Manager) HistoryCollection() string { return m.collection }

// Initialize creates the history collection. An existing collection is not an error.
func (m *Manager) Initialize(ctx context.Context) (err error) {
	start := time.Now()
	ctx, span := m.startSpan(ctx, "initialize", Version{})
	defer func() {
		m.endSpan(span, err)
		m.observeOperation("initialize", Version{}, start, err, 0)
	}()

	err = m.store.CreateCollection(ctx, historyConfig(m.collection))
	if err == nil {
		m.logger.InfoWithContext(ctx, "created migration history collection", nil, map[string]interface{}{
			"collection": m.collection,
		})
		return nil
	}
	if vectordb.IsAlreadyExists(err) {
		return nil
	}
	return &Error{Gate: GateHistory, Err: fmt.Errorf("failed to create history collection %s: %w", m.collection, err)}
}

// Apply runs a migration through its gates in order:
//
//  1. contract: every interaction of every contract must match its expected status
//  2. dependency: the version must be new and every dependency already applied
//  3. apply: changes are applied in declared order
//  4. record: the migration is written to history
//
// Failures are returned as *Error. The result is returned even on failure:
// it lists the changes that were applied, and Partial is set when the store
// was changed but the migration was not recorded. Applied changes are never
// compensated automatically.
func (m *Manager) Apply(ctx context.Context, migration SchemaMigration) (*Result, error) {
	start := time.Now()
	ctx, span := m.startSpan(ctx, "apply", migration.Version)
	result := &Result{Version: migration.Version}

	err := m.apply(ctx, migration, result)

	m.endSpan(span, err)
	m.observeOperation("apply", migration.Version, start, err, int64(len(result.Applied)))
	fields := map[string]interface{}{
		"version": migration.Version.String(),
		"name":    migration.Name,
		"applied": len(result.Applied),
	}
	if err != nil {
		fields["gate"] = string(GateOf(err))
		fields["partial"] = result.Partial
		m.logger.ErrorWithContext(ctx, "migration failed", err, fields)
		return result, err
	}
	m.logger.InfoWithContext(ctx, "migration applied", nil, fields)
	m.publish(ctx, newEvent(EventApplied, migration, result.Applied))
	return result, nil
}

func (m *Manager) apply(ctx context.Context, migration SchemaMigration, result *Result) error {
	v := migration.Version
	if v.IsZero() {
		return &Error{Gate: GateDependency, Err: fmt.Errorf("%w: version is required", ErrInvalidMigration)}
	}

	unlock, err := m.locker.Lock(ctx)
	if err != nil {
		return &Error{Gate: GateLock, Version: v, Err: err}
	}
	defer m.release(ctx, unlock, v)

	for _, contract := range migration.Contracts {
		if err := m.validator.Validate(ctx, contract); err != nil {
			return &Error{Gate: GateContract, Version: v, Err: err}
		}
	}
	result.ContractsValidated = true
	m.logger.DebugWithContext(ctx, "migration contracts validated", nil, map[string]interface{}{
		"version":   v.String(),
		"contracts": len(migration.Contracts),
	})

	history, err := m.history(ctx)
	if err != nil {
		return &Error{Gate: GateDependency, Version: v, Err: err}
	}
	if err := checkDependencies(migration, history); err != nil {
		return &Error{Gate: GateDependency, Version: v, Err: err}
	}

	for i, change := range migration.Changes {
		applied, err := m.applyChange(ctx, change)
		if err != nil {
			result.Partial = storedAny(result.Applied)
			return &Error{
				Gate:    GateApply,
				Version: v,
				Applied: append([]ChangeResult(nil), result.Applied...),
				Err:     fmt.Errorf("change %d (%s %s): %w", i+1, change.Kind(), change.Target(), err),
			}
		}
		result.Applied = append(result.Applied, applied)
		m.logger.DebugWithContext(ctx, "migration change applied", nil, map[string]interface{}{
			"version": v.String(),
			"change":  applied.String(),
		})
	}

	if err := m.record(ctx, migration); err != nil {
		result.Partial = storedAny(result.Applied)
		return &Error{
			Gate:    GateRecord,
			Version: v,
			Applied: append([]ChangeResult(nil), result.Applied...),
			Err:     err,
		}
	}
	return nil
}

// checkDependencies rejects an already applied version and lists every missing dependency.
func checkDependencies(migration SchemaMigration, history []SchemaMigration) error {
	for _, h := range history {
		if h.Version.Equal(migration.Version) {
			return fmt.Errorf("%w: %s is already applied", ErrDuplicateVersion, h.Version)
		}
	}

	var missing []string
	for _, dep := range migration.Metadata.Dependencies {
		found := false
		for _, h := range history {
			if h.Version.Equal(dep) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, dep.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingDependency, strings.Join(missing, ", "))
	}
	return nil
}

func (m *Manager) applyChange(ctx context.Context, change CollectionChange) (ChangeResult, error) {
	switch c := change.(type) {
	case CreateCollection:
		return ChangeResult{Kind: c.Kind(), Collection: c.Config.Name}, m.store.CreateCollection(ctx, c.Config)
	case DeleteCollection:
		return ChangeResult{Kind: c.Kind(), Collection: c.Name}, m.store.DeleteCollection(ctx, c.Name)
	case UpdateCollection:
		return ChangeResult{}, fmt.Errorf("%w: collection %s cannot be changed in place, copy its data into a new collection",
			ErrUnsupportedChange, c.Name)
	case RenameCollection:
		return ChangeResult{}, fmt.Errorf("%w: renaming %s to %s requires a manual data migration",
			ErrUnsupportedChange, c.OldName, c.NewName)
	case AddIndex:
		return ChangeResult{Kind: c.Kind(), Collection: c.Collection, Field: c.Field, IndexKind: c.Index}, nil
	case RemoveIndex:
		return ChangeResult{Kind: c.Kind(), Collection: c.Collection, Field: c.Field}, nil
	}
	return ChangeResult{}, fmt.Errorf("%w: %T", ErrUnsupportedChange, change)
}

func (m *Manager) record(ctx context.Context, migration SchemaMigration) error {
	rec, err := encodeRecord(migration)
	if err != nil {
		return err
	}
	if err := m.store.StoreVector(ctx, m.collection, rec); err != nil {
		return fmt.Errorf("failed to record migration in %s: %w", m.collection, err)
	}
	return nil
}

// Rollback undoes an applied migration and removes its history record.
// Changes are reversed in reverse order: a created collection is deleted and
// index declarations need nothing. A migration marked non-reversible or
// containing a DeleteCollection is refused with ErrNotReversible before
// anything is changed, since dropped data cannot be restored.
func (m *Manager) Rollback(ctx context.Context, version Version) (*Result, error) {
	start := time.Now()
	ctx, span := m.startSpan(ctx, "rollback", version)
	result := &Result{Version: version}

	migration, err := m.rollback(ctx, version, result)

	m.endSpan(span, err)
	m.observeOperation("rollback", version, start, err, int64(len(result.Applied)))
	fields := map[string]interface{}{
		"version":  version.String(),
		"reversed": len(result.Applied),
	}
	if err != nil {
		m.logger.ErrorWithContext(ctx, "migration rollback failed", err, fields)
		return result, err
	}
	m.logger.InfoWithContext(ctx, "migration rolled back", nil, fields)
	m.publish(ctx, newEvent(EventRolledBack, migration, result.Applied))
	return result, nil
}

func (m *Manager) rollback(ctx context.Context, version Version, result *Result) (SchemaMigration, error) {
	unlock, err := m.locker.Lock(ctx)
	if err != nil {
		return SchemaMigration{}, &Error{Gate: GateLock, Version: version, Err: err}
	}
	defer m.release(ctx, unlock, version)

	rec, err := m.store.GetVector(ctx, m.collection, version.Key())
	if err != nil {
		if vectordb.IsNotFound(err) {
			err = fmt.Errorf("%w: %s: %w", ErrMigrationNotFound, version, err)
		}
		return SchemaMigration{}, &Error{Gate: GateRollback, Version: version, Err: err}
	}
	migration, err := decodeRecord(*rec)
	if err != nil {
		return SchemaMigration{}, &Error{Gate: GateRollback, Version: version, Err: err}
	}

	if !migration.Metadata.Reversible {
		return SchemaMigration{}, &Error{Gate: GateRollback, Version: version, Err: fmt.Errorf("%w: %s is marked non-reversible", ErrNotReversible, version)}
	}
	for _, change := range migration.Changes {
		if d, ok := change.(DeleteCollection); ok {
			return SchemaMigration{}, &Error{Gate: GateRollback, Version: version,
				Err: fmt.Errorf("%w: cannot recreate deleted collection %s without a backup", ErrNotReversible, d.Name)}
		}
	}

	for i := len(migration.Changes) - 1; i >= 0; i-- {
		reversed, ok, err := m.reverseChange(ctx, migration.Changes[i])
		if err != nil {
			result.Partial = storedAny(result.Applied)
			return SchemaMigration{}, &Error{
				Gate:    GateRollback,
				Version: version,
				Applied: append([]ChangeResult(nil), result.Applied...),
				Err:     fmt.Errorf("reverse change %d (%s %s): %w", i+1, migration.Changes[i].Kind(), migration.Changes[i].Target(), err),
			}
		}
		if ok {
			result.Applied = append(result.Applied, reversed)
		}
	}

	if err := m.store.DeleteVector(ctx, m.collection, version.Key()); err != nil {
		result.Partial = storedAny(result.Applied)
		return SchemaMigration{}, &Error{
			Gate:    GateRollback,
			Version: version,
			Applied: append([]ChangeResult(nil), result.Applied...),
			Err:     fmt.Errorf("failed to remove history record: %w", err),
		}
	}
	return migration, nil
}

// reverseChange undoes one change. ok is false when nothing had to be done.
func (m *Manager) reverseChange(ctx context.Context, change CollectionChange) (ChangeResult, bool, error) {
	c, isCreate := change.(CreateCollection)
	if !isCreate {
		return ChangeResult{}, false, nil
	}
	err := m.store.DeleteCollection(ctx, c.Config.Name)
	if errors.Is(err, vectordb.ErrCollectionNotFound) {
		// already gone, e.g. after an interrupted rollback
		m.logger.WarnWithContext(ctx, "collection to roll back does not exist", err, map[string]interface{}{
			"collection": c.Config.Name,
		})
		return ChangeResult{}, false, nil
	}
	if err != nil {
		return ChangeResult{}, false, err
	}
	return ChangeResult{Kind: KindDeleteCollection, Collection: c.Config.Name}, true, nil
}

// History returns every applied migration sorted ascending by version.
// It reads the whole history collection.
func (m *Manager) History(ctx context.Context) (migrations []SchemaMigration, err error) {
	start := time.Now()
	ctx, span := m.startSpan(ctx, "history", Version{})
	defer func() {
		m.endSpan(span, err)
		m.observeOperation("history", Version{}, start, err, int64(len(migrations)))
	}()

	migrations, err = m.history(ctx)
	if err != nil {
		return nil, &Error{Gate: GateHistory, Err: err}
	}
	return migrations, nil
}

func (m *Manager) history(ctx context.Context) ([]SchemaMigration, error) {
	filter, err := historyFilter()
	if err != nil {
		return nil, err
	}
	records, err := m.store.Scroll(ctx, m.collection, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration history from %s: %w", m.collection, err)
	}
	return decodeRecords(records)
}

// Applied reports whether version is in history. A missing history
// collection means nothing was applied.
func (m *Manager) Applied(ctx context.Context, version Version) (bool, error) {
	_, err := m.store.GetVector(ctx, m.collection, version.Key())
	if err == nil {
		return true, nil
	}
	if vectordb.IsNotFound(err) {
		return false, nil
	}
	return false, &Error{Gate: GateHistory, Version: version, Err: err}
}

// Pending returns the migrations of defs that are not in history, sorted by version.
func (m *Manager) Pending(ctx context.Context, defs []SchemaMigration) ([]SchemaMigration, error) {
	history, err := m.History(ctx)
	if err != nil {
		return nil, err
	}
	var pending []SchemaMigration
	for _, def := range defs {
		applied := false
		for _, h := range history {
			if h.Version.Equal(def.Version) {
				applied = true
				break
			}
		}
		if !applied {
			pending = append(pending, def)
		}
	}
	SortByVersion(pending)
	return pending, nil
}

func (m *Manager) publish(ctx context.Context, event Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishEvent(ctx, event); err != nil {
		m.logger.WarnWithContext(ctx, "failed to publish migration event", err, map[string]interface{}{
			"version": event.Version.String(),
			"type":    string(event.Type),
		})
	}
}

func (m *Manager) release(ctx context.Context, unlock func(context.Context) error, v Version) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		m.logger.WarnWithContext(ctx, "failed to release migration lock", err, map[string]interface{}{
			"version": v.String(),
		})
	}
}

func (m *Manager) startSpan(ctx context.Context, operation string, v Version) (context.Context, trace.Span) {
	name := "migration." + operation
	var span trace.Span
	if m.tracer != nil {
		ctx, span = m.tracer.StartSpan(ctx, name)
	} else {
		ctx, span = otel.Tracer(instrumentationName).Start(ctx, name)
	}
	span.SetAttributes(attribute.String("migration.history_collection", m.collection))
	if !v.IsZero() {
		span.SetAttributes(attribute.String("migration.version", v.String()))
	}
	return ctx, span
}

func (m *Manager) endSpan(span trace.Span, err error) {
	if err != nil {
		if gate := GateOf(err); gate != "" {
			span.SetAttributes(attribute.String("migration.gate", string(gate)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
