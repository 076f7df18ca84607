// Package qdrant provides the Qdrant implementation of vectordb.Store.
//
// The package wraps the official gRPC client (github.com/qdrant/go-client)
// with a connection-checked QdrantClient and an Adapter that converts the
// backend-agnostic model (collections, records, compiled filters) into Qdrant
// requests. It integrates with the fx dependency injection framework and
// supports builder-style configuration.
//
// # Core Features
//
//   - Managed client lifecycle with Fx integration
//   - Config struct supporting YAML and VECSCHEMA_QDRANT_* environment variables
//   - Health check on client initialization
//   - vectordb.FilterSet conversion, including nested groups, min-should and presence checks
//   - Arbitrary string record ids, mapped to deterministic UUID point ids
//   - Concurrent SearchBatch bounded to ten in-flight searches
//   - Errors translated to the vectordb sentinel taxonomy
//
// # Basic Usage
//
//	qc, err := qdrant.NewQdrantClient(qdrant.QdrantParams{
//	    Config: &qdrant.Config{Endpoint: "localhost", Port: 6334},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer qc.Close()
//
//	var store vectordb.Store = qdrant.NewAdapterFromClient(qc)
//
//	cfg, _ := vectordb.NewCollectionConfig("documents", 768, vectordb.Cosine)
//	_ = store.CreateCollection(ctx, cfg)
//
//	filter, _ := vectordb.CompileMap(map[string]any{
//	    "category": "docs",
//	    "year":     map[string]any{"$gte": 2020},
//	})
//	results, err := store.Search(ctx, "documents", queryVector, vectordb.SearchParams{
//	    Limit:  5,
//	    Filter: filter,
//	})
//
// # Filter Mapping
//
//	MatchCondition        → match (keyword / integer / bool)
//	NumericRangeCondition → range
//	TimeRangeCondition    → datetime_range (payload times are stored as RFC3339)
//	ExistsCondition       → is_empty (false) / must_not is_empty (true)
//	NestedCondition       → nested filter condition
//	FilterSet.MinShould   → min_should when greater than one
//
// # Record IDs
//
// Qdrant accepts only UUIDs and unsigned integers as point ids. Ids that are
// not UUIDs are mapped with uuid.NewSHA1 and the original id is stored under
// the "_id" payload key; it is restored and stripped on every read.
//
// # FX Module Integration
//
//	app := fx.New(
//	    fx.Supply(qdrant.DefaultConfig()),
//	    logger.FXModule,
//	    qdrant.FXModule,
//	)
//
// The module provides *QdrantClient, *Adapter and vectordb.Store.
package qdrant
