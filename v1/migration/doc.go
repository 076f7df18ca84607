// Package migration tracks, applies, validates and rolls back versioned
// schema changes of vector collections.
//
// A SchemaMigration is identified by a semantic Version and carries ordered
// CollectionChanges, Metadata (author, dependencies, reversibility) and
// consumer Contracts. Build one with NewBuilder or load YAML files with
// LoadDefinitions.
//
// # Applying
//
//	manager := migration.NewManager(store,
//	    migration.WithLogger(log),
//	    migration.WithLocker(redisClient.Locker("", 0)))
//	if err := manager.Initialize(ctx); err != nil {
//	    return err
//	}
//
//	v1 := migration.NewBuilder(migration.MustParseVersion("1.0.0"), "create docs").
//	    CreateCollection(vectordb.CollectionConfig{Name: "docs", Dimension: 768, Distance: vectordb.Cosine}).
//	    Build()
//	result, err := manager.Apply(ctx, v1)
//
// Apply passes four gates in order: contract validation, dependency check,
// change application and history recording. A failed gate stops the
// pipeline and returns a *Error naming it:
//
//	var merr *migration.Error
//	if errors.As(err, &merr) {
//	    log.Error("migration failed", err, map[string]interface{}{
//	        "gate":    merr.Gate,
//	        "mutated": merr.Mutated(),
//	    })
//	}
//
// Changes applied before a failure are not undone. Rollback can undo them
// later if the migration is reversible.
//
// # History
//
// Applied migrations are stored in a reserved collection of the same store
// (DefaultHistoryCollection), one record per version with the full
// migration under the "migration" payload key and "type" set to
// "schema_migration". History reads the whole collection and sorts by
// version.
//
// # Contracts
//
// LiveValidator replays contract interactions against the store without
// changing existing data and compares the outcome class with the expected
// status. Validated contracts can be archived as Pact v2 documents in a
// directory (DirArchive) or an object store such as MinIO (ObjectArchive).
//
// # Events
//
// With WithPublisher set, every successful Apply and Rollback emits an Event.
// NewJSONPublisher turns a transport send function into a publisher; the
// rabbit and kafka packages provide such transports. A failed publish is
// logged and the migration still succeeds.
//
// # Concurrency
//
// Apply and Rollback are serialized by a Locker. The default LocalLocker
// covers one process; use a Redis lock when several processes migrate the
// same store.
package migration
