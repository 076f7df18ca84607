// Package vectordb provides a database-agnostic abstraction for vector storage,
// together with a filter compiler that turns JSON-like filter expressions into
// structured queries.
//
// # Overview
//
// The [Store] interface is implemented by backend adapters (qdrant.Adapter,
// memstore.Store). Applications and the migration engine depend on it only.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│            Application / migration.Manager                  │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                     vectordb.Store                          │
//	│   (interface + FilterSet + Compile + error taxonomy)        │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	              ┌────────────┴────────────┐
//	              ▼                         ▼
//	      ┌───────────────┐         ┌────────────────┐
//	      │ qdrant.Adapter│         │ memstore.Store │
//	      └───────────────┘         └────────────────┘
//
// # Filter Expressions
//
// A [FilterExpression] maps field names to values. Scalars mean equality;
// operator objects use $gt, $gte, $lt, $lte, $in, $exists and $ne:
//
//	filter, err := vectordb.CompileMap(map[string]any{
//	    "status": "published",
//	    "year":   map[string]any{"$gte": 2020, "$lte": 2024},
//	    "tags":   map[string]any{"$in": []any{"ml", "ai"}},
//	    "draft":  map[string]any{"$exists": false},
//	})
//
// Every field contributes one MUST condition. $ne is declared but rejected
// with [ErrNotImplemented]; malformed operator objects fail with
// [ErrInvalidFilter] unless [SkipInvalid] is passed. Unrecognized shapes
// (arrays, null, plain nested objects) are dropped. Errors are joined per
// field and each one is a [*FilterError].
//
// Equality on floating-point values truncates to an integer. Use a range
// expression when an exact float comparison is needed.
//
// Structured boolean queries can skip the operator syntax entirely:
//
//	filter, err := vectordb.CompileBoolean(vectordb.BooleanQuery{
//	    Must:    []vectordb.FieldMatch{{Field: "lang", Value: "en"}},
//	    Should:  []vectordb.FieldMatch{{Field: "tag", Value: "ml"}, {Field: "tag", Value: "ai"}},
//	    MustNot: []vectordb.FieldMatch{{Field: "archived", Value: true}},
//	})
//
// # Filter Types
//
//	| Type                  | Description                  | SQL Equivalent                     |
//	|-----------------------|------------------------------|------------------------------------|
//	| MatchCondition        | Exact value match            | WHERE field = value                |
//	| NumericRangeCondition | Numeric range                | WHERE field >= min AND field <= max|
//	| TimeRangeCondition    | Datetime range               | WHERE created_at BETWEEN ...       |
//	| ExistsCondition       | Field present / absent       | WHERE field IS [NOT] NULL          |
//	| NestedCondition       | Sub-query                    | WHERE (a OR b)                     |
//
// [FilterSet.Matches] evaluates a compiled query against a payload map so
// in-process stores and tests share the exact semantics backends apply.
package vectordb
