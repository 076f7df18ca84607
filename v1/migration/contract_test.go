package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb/memstore"
)

func seededStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.CreateCollection(ctx, vectordb.CollectionConfig{Name: "docs", Dimension: 3, Distance: vectordb.Cosine}))
	require.NoError(t, store.StoreVector(ctx, "docs", vectordb.Record{
		ID:      "doc-1",
		Vector:  []float32{1, 0, 0},
		Payload: map[string]any{"tenant": "acme"},
	}))
	return store
}

func interaction(op Operation, collection string, params map[string]any, status ResponseStatus) Interaction {
	return Interaction{
		Description: string(op) + " on " + collection,
		Request:     Request{Operation: op, Collection: collection, Parameters: params},
		Response:    Response{Status: status},
	}
}

func TestStatusMatches(t *testing.T) {
	tests := []struct {
		expected, actual ResponseStatus
		want             bool
	}{
		{StatusSuccess, StatusSuccess, true},
		{StatusSuccess, StatusError, false},
		{StatusSuccess, StatusNotFound, false},
		{StatusNotFound, StatusNotFound, true},
		{StatusNotFound, StatusError, true},
		{StatusNotFound, StatusSuccess, false},
		{StatusError, StatusError, true},
		{StatusError, StatusNotFound, true},
		{StatusError, StatusSuccess, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusMatches(tt.expected, tt.actual), "%s vs %s", tt.expected, tt.actual)
	}
}

func TestLiveValidator_Interactions(t *testing.T) {
	tests := []struct {
		name        string
		interaction Interaction
	}{
		{"list collections", interaction(OpListCollections, "", nil, StatusSuccess)},
		{"get existing vector", interaction(OpGetVector, "docs", map[string]any{"id": "doc-1"}, StatusSuccess)},
		{"get missing vector", interaction(OpGetVector, "docs", map[string]any{"id": "nope"}, StatusNotFound)},
		{"get from missing collection", interaction(OpGetVector, "ghosts", map[string]any{"id": "doc-1"}, StatusNotFound)},
		{"store vector", interaction(OpStoreVector, "docs", map[string]any{"payload": map[string]any{"tenant": "acme"}}, StatusSuccess)},
		{"store wrong dimension", interaction(OpStoreVector, "docs", map[string]any{"vector": []any{1, 2}}, StatusError)},
		{"store wrong dimension expecting not found", interaction(OpStoreVector, "docs", map[string]any{"vector": []any{1, 2}}, StatusNotFound)},
		{"store into missing collection", interaction(OpStoreVector, "ghosts", nil, StatusNotFound)},
		{"search", interaction(OpSearchSimilar, "docs", map[string]any{"limit": 3}, StatusSuccess)},
		{"search with filter", interaction(OpSearchSimilar, "docs", map[string]any{"filter": map[string]any{"tenant": "acme"}}, StatusSuccess)},
		{"search with $ne", interaction(OpSearchSimilar, "docs", map[string]any{"filter": map[string]any{"tenant": map[string]any{"$ne": "x"}}}, StatusError)},
		{"search missing collection", interaction(OpSearchSimilar, "ghosts", nil, StatusNotFound)},
		{"create new collection", interaction(OpCreateCollection, "analytics", map[string]any{"dimension": 512, "distance": "Dot"}, StatusSuccess)},
		{"create existing collection", interaction(OpCreateCollection, "docs", nil, StatusError)},
		{"create invalid collection", interaction(OpCreateCollection, "analytics", map[string]any{"dimension": 0}, StatusError)},
		{"delete existing collection", interaction(OpDeleteCollection, "docs", nil, StatusSuccess)},
		{"delete missing collection", interaction(OpDeleteCollection, "ghosts", nil, StatusNotFound)},
		{"delete vector", interaction(OpDeleteVector, "docs", map[string]any{"id": "doc-1"}, StatusSuccess)},
		{"unknown operation", interaction(Operation("truncate"), "docs", nil, StatusError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := seededStore(t)
			v := NewLiveValidator(store)

			err := v.Validate(ctx, Contract{Consumer: "search-service", Interactions: []Interaction{tt.interaction}})
			require.NoError(t, err)

			// probes leave the store as they found it
			names, err := store.ListCollections(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"docs"}, names)
			records, err := store.Scroll(ctx, "docs", nil)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "doc-1", records[0].ID)
		})
	}
}

func TestLiveValidator_Mismatch(t *testing.T) {
	store := seededStore(t)
	v := NewLiveValidator(store)

	contract := Contract{
		Consumer: "analytics-service",
		Interactions: []Interaction{
			interaction(OpListCollections, "", nil, StatusSuccess),
			interaction(OpSearchSimilar, "analytics", nil, StatusSuccess),
			interaction(OpGetVector, "docs", map[string]any{"id": "doc-1"}, StatusNotFound),
		},
	}
	err := v.Validate(context.Background(), contract)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractMismatch))
	assert.True(t, errors.Is(err, vectordb.ErrCollectionNotFound))

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "analytics-service", mismatch.Consumer)
	assert.Equal(t, "search_similar on analytics", mismatch.Interaction)
	assert.Equal(t, StatusSuccess, mismatch.Expected)
	assert.Equal(t, StatusNotFound, mismatch.Actual)
}

func TestApply_ContractMismatchDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	mig := NewBuilder(v110, "add analytics").
		CreateCollection(analyticsConfig()).
		AddContract(Contract{
			Consumer:     "search-service",
			Provider:     "vecstore",
			Interactions: []Interaction{interaction(OpSearchSimilar, "docs", nil, StatusSuccess)},
		}).
		Build()

	res, err := m.Apply(ctx, mig)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractMismatch))
	assert.Equal(t, GateContract, GateOf(err))
	assert.True(t, IsRejected(err))
	assert.False(t, res.ContractsValidated)
	assert.Equal(t, []string{DefaultHistoryCollection}, collections(t, store))
}

func TestApply_ContractArchivedAsPact(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, store := newTestManager(t, WithArchive(NewDirArchive(dir)))
	require.NoError(t, store.CreateCollection(ctx, docsConfig()))

	mig := NewBuilder(v100, "add analytics").
		CreateCollection(analyticsConfig()).
		AddContract(Contract{
			Consumer:     "search-service",
			Provider:     "vecstore",
			ContractPath: "./pacts/search-service-vecstore.json",
			Interactions: []Interaction{
				interaction(OpSearchSimilar, "docs", map[string]any{"limit": 5}, StatusSuccess),
				interaction(OpGetVector, "docs", map[string]any{"id": "missing"}, StatusNotFound),
			},
		}).
		Build()

	res, err := m.Apply(ctx, mig)
	require.NoError(t, err)
	assert.True(t, res.ContractsValidated)

	data, err := os.ReadFile(filepath.Join(dir, "pacts", "search-service-vecstore.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "search-service", doc["consumer"].(map[string]any)["name"])
	assert.Equal(t, "vecstore", doc["provider"].(map[string]any)["name"])
	interactions := doc["interactions"].([]any)
	require.Len(t, interactions, 2)
	assert.Equal(t, float64(200), interactions[0].(map[string]any)["response"].(map[string]any)["status"])
	assert.Equal(t, float64(404), interactions[1].(map[string]any)["response"].(map[string]any)["status"])
}

func TestApply_NopValidatorSkipsProbes(t *testing.T) {
	m, _ := newTestManager(t, WithValidator(NopValidator{}))
	res, err := m.Apply(context.Background(), NewBuilder(v100, "x").AddContract(Contract{
		Interactions: []Interaction{interaction(OpSearchSimilar, "ghosts", nil, StatusSuccess)},
	}).Build())
	require.NoError(t, err)
	assert.True(t, res.ContractsValidated)
}

func TestPactDocument(t *testing.T) {
	contract := Contract{
		Consumer: "document-service",
		Provider: "vecstore",
		Interactions: []Interaction{{
			Description: "store a document vector",
			Request:     Request{Operation: OpStoreVector, Collection: "docs", Parameters: map[string]any{"id": "doc-1"}},
			Response:    Response{Status: StatusSuccess, Data: map[string]any{"stored": true}},
		}, {
			Description: "store into a missing collection",
			Request:     Request{Operation: OpStoreVector, Collection: "ghosts"},
			Response:    Response{Status: StatusError},
		}},
	}

	data, err := PactDocument(contract)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"consumer": {"name": "document-service"},
		"provider": {"name": "vecstore"},
		"interactions": [
			{
				"description": "store a document vector",
				"request": {
					"method": "POST",
					"path": "/vector-operation",
					"body": {"operation": "store_vector", "collection": "docs", "parameters": {"id": "doc-1"}}
				},
				"response": {"status": 200, "body": {"stored": true}}
			},
			{
				"description": "store into a missing collection",
				"request": {
					"method": "POST",
					"path": "/vector-operation",
					"body": {"operation": "store_vector", "collection": "ghosts"}
				},
				"response": {"status": 500, "body": {}}
			}
		],
		"metadata": {"pactSpecification": {"version": "2.0.0"}}
	}`, string(data))
}

type memObjects struct {
	objects map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ ...int64) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func TestArchives(t *testing.T) {
	ctx := context.Background()
	doc := []byte(`{"consumer":{"name":"a"}}`)

	objects := &memObjects{objects: map[string][]byte{}}
	dir := t.TempDir()

	for name, archive := range map[string]ContractArchive{
		"object": NewObjectArchive(objects),
		"dir":    NewDirArchive(dir),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, archive.Save(ctx, "./pacts/../pacts/a.json", doc))
			got, err := archive.Load(ctx, "pacts/a.json")
			require.NoError(t, err)
			assert.True(t, bytes.Equal(doc, got))

			// paths cannot escape the archive root
			require.NoError(t, archive.Save(ctx, "../../escape.json", doc))
			got, err = archive.Load(ctx, "escape.json")
			require.NoError(t, err)
			assert.Equal(t, doc, got)
		})
	}

	assert.Contains(t, objects.objects, "pacts/a.json")
	_, err := os.Stat(filepath.Join(dir, "pacts", "a.json"))
	assert.NoError(t, err)
	assert.False(t, strings.HasPrefix(cleanKey("/abs/path.json"), "/"))
}
