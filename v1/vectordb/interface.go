package vectordb

import "context"

// Store is the common interface for all vector database backends.
// It provides a database-agnostic abstraction for collection administration,
// record storage and similarity search, so the filter compiler and the
// migration engine work the same way against Qdrant or the in-memory store.
//
// Implementations translate failures into the sentinel errors of this
// package (ErrCollectionNotFound, ErrCollectionExists, ErrVectorNotFound,
// ErrStorage) so callers can branch with errors.Is.
//
// Example usage:
//
//	func NewSearchService(db vectordb.Store) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	// Works with any implementation:
//	// - qdrant.NewAdapter(qdrantClient)
//	// - memstore.New()
type Store interface {
	// CreateCollection creates a new collection.
	// Returns ErrCollectionExists if a collection with that name exists.
	CreateCollection(ctx context.Context, cfg CollectionConfig) error

	// DeleteCollection removes a collection and all of its records.
	// Returns ErrCollectionNotFound if it does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// GetCollection retrieves metadata about a collection.
	GetCollection(ctx context.Context, name string) (*Collection, error)

	// ListCollections returns names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// StoreVector inserts or replaces a record.
	StoreVector(ctx context.Context, collection string, record Record) error

	// GetVector returns a record by ID, or ErrVectorNotFound.
	GetVector(ctx context.Context, collection, id string) (*Record, error)

	// DeleteVector removes a record by ID. Deleting a missing ID is not an error.
	DeleteVector(ctx context.Context, collection, id string) error

	// Search performs similarity search ranked by score, highest first.
	Search(ctx context.Context, collection string, query []float32, params SearchParams) ([]SearchResult, error)

	// Scroll returns every record matching filter (all records when nil),
	// without ranking and without vectors.
	Scroll(ctx context.Context, collection string, filter *FilterSet) ([]Record, error)
}
