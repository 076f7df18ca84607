// Package memstore provides an in-memory implementation of vectordb.Store.
//
// It is used as a test double for the migration engine and as the reference
// for filter semantics: records are filtered with vectordb.FilterSet.Matches,
// so a query behaves the same as it does against a real backend.
//
// The store owns a table of collections guarded by one mutex. Each collection
// holds its own sync.RWMutex around its records, so searches on different
// collections never contend.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// Store is a lock-guarded, in-process vector store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	mu      sync.RWMutex
	config  vectordb.CollectionConfig
	records map[string]vectordb.Record
}

// compile-time check
var _ vectordb.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) collection(name string) (*collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return c, nil
}

// CreateCollection registers a new empty collection.
func (s *Store) CreateCollection(ctx context.Context, cfg vectordb.CollectionConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	metric, _ := vectordb.ParseDistanceMetric(string(cfg.Distance))
	cfg.Distance = metric

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[cfg.Name]; ok {
		return fmt.Errorf("%w: %s", vectordb.ErrCollectionExists, cfg.Name)
	}
	s.collections[cfg.Name] = &collection{config: cfg, records: make(map[string]vectordb.Record)}
	return nil
}

// DeleteCollection drops a collection with all its records.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// GetCollection reports a collection's configuration and size.
func (s *Store) GetCollection(ctx context.Context, name string) (*vectordb.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &vectordb.Collection{
		Name:       c.config.Name,
		Status:     "Green",
		VectorSize: c.config.Dimension,
		Distance:   c.config.Distance,
		PointCount: uint64(len(c.records)),
	}, nil
}

// ListCollections returns collection names in lexical order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// StoreVector inserts or replaces a record after checking its dimension.
func (s *Store) StoreVector(ctx context.Context, name string, record vectordb.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record id cannot be empty", vectordb.ErrStorage)
	}
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(record.Vector) != c.config.Dimension {
		return fmt.Errorf("%w: vector dimension %d does not match collection %s (%d)",
			vectordb.ErrStorage, len(record.Vector), name, c.config.Dimension)
	}
	c.records[record.ID] = cloneRecord(record)
	return nil
}

// GetVector returns a copy of the record or vectordb.ErrVectorNotFound.
func (s *Store) GetVector(ctx context.Context, name, id string) (*vectordb.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", vectordb.ErrVectorNotFound, name, id)
	}
	out := cloneRecord(rec)
	return &out, nil
}

// DeleteVector removes a record; a missing id is not an error.
func (s *Store) DeleteVector(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, id)
	return nil
}

// Search ranks filtered records by the collection's metric, highest score first.
func (s *Store) Search(ctx context.Context, name string, query []float32, params vectordb.SearchParams) ([]vectordb.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(query) != c.config.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match collection %s (%d)",
			vectordb.ErrStorage, len(query), name, c.config.Dimension)
	}

	results := make([]vectordb.SearchResult, 0, len(c.records))
	for _, rec := range c.records {
		if !params.Filter.Matches(rec.Payload) {
			continue
		}
		score := similarity(c.config.Distance, query, rec.Vector)
		if params.ScoreThreshold != nil && score < *params.ScoreThreshold {
			continue
		}
		out := cloneRecord(rec)
		if !params.IncludeVectors {
			out.Vector = nil
		}
		results = append(results, vectordb.SearchResult{Record: out, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Record.ID < results[j].Record.ID
		}
		return results[i].Score > results[j].Score
	})
	if params.Limit > 0 && len(results) > params.Limit {
		results = results[:params.Limit]
	}
	return results, nil
}

// Scroll returns every record matching filter, ordered by id, without vectors.
func (s *Store) Scroll(ctx context.Context, name string, filter *vectordb.FilterSet) ([]vectordb.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]vectordb.Record, 0, len(c.records))
	for _, rec := range c.records {
		if !filter.Matches(rec.Payload) {
			continue
		}
		r := cloneRecord(rec)
		r.Vector = nil
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// similarity follows the backend convention that a higher score is a closer
// match, so distance metrics are negated.
func similarity(metric vectordb.DistanceMetric, a, b []float32) float32 {
	switch metric {
	case vectordb.DotProduct:
		return float32(dot(a, b))
	case vectordb.Euclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	case vectordb.Manhattan:
		var sum float64
		for i := range a {
			sum += math.Abs(float64(a[i]) - float64(b[i]))
		}
		return float32(-sum)
	default:
		na, nb := math.Sqrt(dot(a, a)), math.Sqrt(dot(b, b))
		if na == 0 || nb == 0 {
			return 0
		}
		return float32(dot(a, b) / (na * nb))
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cloneRecord(r vectordb.Record) vectordb.Record {
	out := vectordb.Record{ID: r.ID}
	if r.Vector != nil {
		out.Vector = append([]float32(nil), r.Vector...)
	}
	if r.Payload != nil {
		out.Payload = make(map[string]any, len(r.Payload))
		for k, v := range r.Payload {
			out.Payload[k] = v
		}
	}
	return out
}
