package qdrant

import (
	"context"
	"fmt"
	"sort"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const (
	defaultSearchLimit    = 10  // used when SearchParams.Limit is not set
	defaultScrollPageSize = 256 // points fetched per scroll request
	maxConcurrentSearches = 10  // bound for SearchBatch fan-out
)

// Adapter implements vectordb.Store on top of the Qdrant SDK client.
//
// Record ids are mapped to UUID point ids (see IDPayloadKey) so callers can
// use arbitrary string ids. Search requests without a limit return at most
// ten results.
type Adapter struct {
	client   *qdrant.Client
	observer observability.Observer
	logger   logger.Logger

	shardNumber       uint32
	replicationFactor uint32
}

// compile-time check
var _ vectordb.Store = (*Adapter)(nil)

// NewAdapter creates a Store backed by an existing Qdrant SDK client.
//
// Example:
//
//	qc, _ := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: cfg})
//	var store vectordb.Store = qdrant.NewAdapter(qc.Client())
func NewAdapter(client *qdrant.Client) *Adapter {
	return &Adapter{client: client, logger: logger.NewNop()}
}

// NewAdapterFromClient creates a Store from a QdrantClient and applies its
// sharding configuration to created collections.
func NewAdapterFromClient(qc *QdrantClient) *Adapter {
	a := NewAdapter(qc.Client())
	if cfg := qc.Config(); cfg != nil {
		a.shardNumber = cfg.ShardNumber
		a.replicationFactor = cfg.ReplicationFactor
	}
	if qc.logger != nil {
		a.logger = qc.logger
	}
	return a
}

// WithObserver sets an observer notified once per operation.
func (a *Adapter) WithObserver(observer observability.Observer) *Adapter {
	a.observer = observer
	return a
}

// WithLogger sets the logger used for debug output.
func (a *Adapter) WithLogger(l logger.Logger) *Adapter {
	if l != nil {
		a.logger = l
	}
	return a
}

// ── Collections ──────────────────────────────────────────────────────────────

// CreateCollection creates a collection or returns vectordb.ErrCollectionExists.
func (a *Adapter) CreateCollection(ctx context.Context, cfg vectordb.CollectionConfig) (err error) {
	start := time.Now()
	defer func() { a.observeOperation("create_collection", cfg.Name, "", start, err, 0, nil) }()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("[Qdrant] %w", err)
	}
	distance, err := toQdrantDistance(cfg.Distance)
	if err != nil {
		return fmt.Errorf("[Qdrant] %w", err)
	}

	exists, err := a.client.CollectionExists(ctx, cfg.Name)
	if err != nil {
		return classifyError("check collection", cfg.Name, err)
	}
	if exists {
		return fmt.Errorf("[Qdrant] %w: %s", vectordb.ErrCollectionExists, cfg.Name)
	}

	req := &qdrant.CreateCollection{
		CollectionName: cfg.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(cfg.Dimension),
			Distance: distance,
		}),
	}
	if a.shardNumber > 0 {
		req.ShardNumber = qdrant.PtrOf(a.shardNumber)
	}
	if a.replicationFactor > 0 {
		req.ReplicationFactor = qdrant.PtrOf(a.replicationFactor)
	}

	if err := a.client.CreateCollection(ctx, req); err != nil {
		return classifyError("create collection", cfg.Name, err)
	}

	a.logger.Debug("[Qdrant] collection created", nil, map[string]interface{}{
		"collection": cfg.Name,
		"dimension":  cfg.Dimension,
		"distance":   distance.String(),
	})
	return nil
}

// DeleteCollection removes a collection or returns vectordb.ErrCollectionNotFound.
func (a *Adapter) DeleteCollection(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { a.observeOperation("delete_collection", name, "", start, err, 0, nil) }()

	exists, err := a.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyError("check collection", name, err)
	}
	if !exists {
		return fmt.Errorf("[Qdrant] %w: %s", vectordb.ErrCollectionNotFound, name)
	}
	if err := a.client.DeleteCollection(ctx, name); err != nil {
		return classifyError("delete collection", name, err)
	}
	return nil
}

// GetCollection retrieves metadata about a collection.
func (a *Adapter) GetCollection(ctx context.Context, name string) (_ *vectordb.Collection, err error) {
	start := time.Now()
	defer func() { a.observeOperation("get_collection", name, "", start, err, 0, nil) }()

	info, err := a.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, classifyError("get collection", name, err)
	}

	size, distance := extractVectorDetails(info)
	return &vectordb.Collection{
		Name:       name,
		Status:     info.GetStatus().String(),
		VectorSize: size,
		Distance:   fromQdrantDistance(distance),
		PointCount: derefUint64(info.PointsCount),
	}, nil
}

// ListCollections returns all collection names in lexical order.
func (a *Adapter) ListCollections(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { a.observeOperation("list_collections", "", "", start, err, 0, nil) }()

	names, err := a.client.ListCollections(ctx)
	if err != nil {
		return nil, classifyError("list collections", "*", err)
	}
	sort.Strings(names)
	return names, nil
}

// ── Records ──────────────────────────────────────────────────────────────────

// StoreVector upserts a record and waits for the write to be applied.
func (a *Adapter) StoreVector(ctx context.Context, collection string, record vectordb.Record) (err error) {
	start := time.Now()
	defer func() {
		a.observeOperation("store_vector", collection, record.ID, start, err, int64(len(record.Vector)), nil)
	}()

	if record.ID == "" {
		return fmt.Errorf("[Qdrant] %w: record id cannot be empty", vectordb.ErrStorage)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("[Qdrant] %w: record %s has an empty vector", vectordb.ErrStorage, record.ID)
	}

	payload, err := buildPayload(record.ID, record.Payload)
	if err != nil {
		return fmt.Errorf("[Qdrant] %w: %w", vectordb.ErrStorage, err)
	}

	_, err = a.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      toPointID(record.ID),
			Vectors: qdrant.NewVectors(record.Vector...),
			Payload: payload,
		}},
	})
	if err != nil {
		return classifyError("store vector in", collection, err)
	}
	return nil
}

// GetVector returns a record by id or vectordb.ErrVectorNotFound.
func (a *Adapter) GetVector(ctx context.Context, collection, id string) (_ *vectordb.Record, err error) {
	start := time.Now()
	defer func() { a.observeOperation("get_vector", collection, id, start, err, 0, nil) }()

	points, err := a.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{toPointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, classifyError("get vector from", collection, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("[Qdrant] %w: %s/%s", vectordb.ErrVectorNotFound, collection, id)
	}

	rec, err := toRecord(points[0].GetId(), points[0].GetPayload(), points[0].GetVectors())
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %w: %w", vectordb.ErrStorage, err)
	}
	return &rec, nil
}

// DeleteVector removes a record. Deleting a missing id is not an error.
func (a *Adapter) DeleteVector(ctx context.Context, collection, id string) (err error) {
	start := time.Now()
	defer func() { a.observeOperation("delete_vector", collection, id, start, err, 0, nil) }()

	_, err = a.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(toPointID(id)),
	})
	if err != nil {
		return classifyError("delete vector from", collection, err)
	}
	return nil
}

// ── Search ───────────────────────────────────────────────────────────────────

// Search performs a similarity search with an optional compiled filter.
func (a *Adapter) Search(ctx context.Context, collection string, query []float32, params vectordb.SearchParams) (_ []vectordb.SearchResult, err error) {
	start := time.Now()
	var results []vectordb.SearchResult
	defer func() {
		a.observeOperation("search", collection, "", start, err, int64(len(results)), nil)
	}()

	if len(query) == 0 {
		return nil, fmt.Errorf("[Qdrant] %w: query vector cannot be empty", vectordb.ErrStorage)
	}
	filter, err := convertFilterSet(params.Filter)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	points, err := a.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: params.ScoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(params.IncludeVectors),
	})
	if err != nil {
		return nil, classifyError("search", collection, err)
	}

	results, err = parseSearchResults(points)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %w: %w", vectordb.ErrStorage, err)
	}
	return results, nil
}

// SearchBatch runs several searches against one collection concurrently,
// at most ten at a time. Results keep the order of queries; the first
// failure cancels the remaining searches.
func (a *Adapter) SearchBatch(ctx context.Context, collection string, queries [][]float32, params vectordb.SearchParams) ([][]vectordb.SearchResult, error) {
	results := make([][]vectordb.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)

	for i, q := range queries {
		g.Go(func() error {
			res, err := a.Search(gctx, collection, q, params)
			if err != nil {
				return fmt.Errorf("search %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Scroll pages through every record matching filter, without vectors.
func (a *Adapter) Scroll(ctx context.Context, collection string, filter *vectordb.FilterSet) (_ []vectordb.Record, err error) {
	start := time.Now()
	var records []vectordb.Record
	defer func() {
		a.observeOperation("scroll", collection, "", start, err, int64(len(records)), nil)
	}()

	qf, err := convertFilterSet(filter)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %w", err)
	}

	var offset *qdrant.PointId
	for {
		// one extra point marks where the next page starts
		points, err := a.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Filter:         qf,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(defaultScrollPageSize + 1)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		if err != nil {
			return nil, classifyError("scroll", collection, err)
		}

		page := points
		if len(points) > defaultScrollPageSize {
			page = points[:defaultScrollPageSize]
			offset = points[defaultScrollPageSize].GetId()
		} else {
			offset = nil
		}

		for _, p := range page {
			rec, err := toRecord(p.GetId(), p.GetPayload(), nil)
			if err != nil {
				return nil, fmt.Errorf("[Qdrant] %w: %w", vectordb.ErrStorage, err)
			}
			records = append(records, rec)
		}
		if offset == nil {
			break
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}
