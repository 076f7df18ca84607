package migration

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

func fullMigration() SchemaMigration {
	dim := 1024
	dist := vectordb.Euclidean
	return NewBuilder(MustParseVersion("2.1.0-rc.1"), "reshape documents").
		Author("search-team").
		Description("moves docs to a larger model").
		CreatedAt(time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)).
		DependsOn(MustParseVersion("1.0.0"), MustParseVersion("2.0.0")).
		BreakingChange().
		NonReversible().
		CreateCollection(vectordb.CollectionConfig{Name: "docs_v2", Dimension: 1024, Distance: vectordb.Cosine}).
		DeleteCollection("docs_tmp").
		UpdateCollection("docs", &dim, &dist).
		RenameCollection("docs", "docs_legacy").
		AddIndex("docs_v2", "tenant", IndexKeyword).
		RemoveIndex("docs_v2", "lang").
		AddContract(Contract{
			Consumer:     "search-service",
			Provider:     "vecstore",
			ContractPath: "pacts/search-service-vecstore.json",
			Interactions: []Interaction{{
				Description: "search documents",
				Request: Request{
					Operation:  OpSearchSimilar,
					Collection: "docs_v2",
					Parameters: map[string]any{"filter": map[string]any{"tenant": "acme"}},
				},
				Response: Response{Status: StatusSuccess, Data: map[string]any{"hits": "any"}},
			}, {
				Description: "missing record",
				Request:     Request{Operation: OpGetVector, Collection: "docs_v2"},
				Response:    Response{Status: StatusNotFound, Error: "vector not found"},
			}},
		}).
		Build()
}

func TestBuilderDefaults(t *testing.T) {
	before := time.Now().UTC()
	m := NewBuilder(MustParseVersion("1.0.0"), "init").Build()

	assert.Equal(t, "init", m.Name)
	assert.Equal(t, "unknown", m.Metadata.Author)
	assert.True(t, m.Metadata.Reversible)
	assert.False(t, m.Metadata.BreakingChange)
	assert.Empty(t, m.Changes)
	assert.Empty(t, m.Contracts)
	assert.False(t, m.Metadata.CreatedAt.Before(before.Add(-time.Second)))
	assert.Equal(t, time.UTC, m.Metadata.CreatedAt.Location())
}

func TestBuilderKeepsOrderAndIsolation(t *testing.T) {
	b := NewBuilder(MustParseVersion("1.0.0"), "init").
		DeleteCollection("b").
		CreateCollection(vectordb.CollectionConfig{Name: "a", Dimension: 2, Distance: vectordb.Cosine})
	first := b.Build()

	b.AddIndex("a", "tenant", IndexKeyword)
	second := b.Build()

	require.Len(t, first.Changes, 2)
	assert.Equal(t, KindDeleteCollection, first.Changes[0].Kind())
	assert.Equal(t, KindCreateCollection, first.Changes[1].Kind())
	assert.Len(t, second.Changes, 3)
}

func TestBuildDeepCopiesContracts(t *testing.T) {
	params := map[string]any{"filter": map[string]any{"tenant": "acme"}}
	b := NewBuilder(MustParseVersion("1.0.0"), "init").AddContract(Contract{
		Interactions: []Interaction{{Request: Request{Operation: OpSearchSimilar, Parameters: params}}},
	})
	m := b.Build()

	params["filter"].(map[string]any)["tenant"] = "other"
	got := m.Contracts[0].Interactions[0].Request.Parameters["filter"].(map[string]any)["tenant"]
	assert.Equal(t, "acme", got)
}

func TestSchemaMigrationJSONRoundTrip(t *testing.T) {
	original := fullMigration()

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded SchemaMigration
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
}

func TestSchemaMigrationRecordRoundTrip(t *testing.T) {
	original := fullMigration()

	rec, err := encodeRecord(original)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0-rc.1", rec.ID)
	assert.Equal(t, recordType, rec.Payload[typeKey])

	decoded, err := decodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestChangeListJSONShape(t *testing.T) {
	data, err := json.Marshal(ChangeList{
		CreateCollection{Config: vectordb.CollectionConfig{Name: "docs", Dimension: 768, Distance: vectordb.Cosine}},
		AddIndex{Collection: "docs", Field: "tenant", Index: IndexKeyword},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"kind":"create_collection","config":{"name":"docs","dimension":768,"distance_metric":"Cosine"}},
		{"kind":"add_index","collection":"docs","field":"tenant","index_kind":"keyword"}
	]`, string(data))
}

func TestChangeListRejectsUnknownKind(t *testing.T) {
	var l ChangeList
	err := json.Unmarshal([]byte(`[{"kind":"truncate_collection","name":"docs"}]`), &l)
	assert.True(t, errors.Is(err, ErrInvalidMigration))

	err = json.Unmarshal([]byte(`[{"kind":"create_collection"}]`), &l)
	assert.True(t, errors.Is(err, ErrInvalidMigration))

	err = json.Unmarshal([]byte(`[{"kind":"add_index","collection":"docs","field":"f","index_kind":"vector"}]`), &l)
	assert.True(t, errors.Is(err, ErrInvalidMigration))
}

func TestChangeListYAMLRoundTrip(t *testing.T) {
	dim := 256
	original := ChangeList{
		CreateCollection{Config: vectordb.CollectionConfig{Name: "docs", Dimension: 768, Distance: vectordb.Cosine}},
		UpdateCollection{Name: "docs", Dimension: &dim},
		RemoveIndex{Collection: "docs", Field: "lang"},
	}

	data, err := yaml.Marshal(original)
	require.NoError(t, err)

	var decoded ChangeList
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestOperationAndStatusParsing(t *testing.T) {
	var op Operation
	require.NoError(t, op.UnmarshalText([]byte("SearchSimilar")))
	assert.Equal(t, OpSearchSimilar, op)
	require.NoError(t, op.UnmarshalText([]byte("list_collections")))
	assert.Equal(t, OpListCollections, op)
	assert.Error(t, op.UnmarshalText([]byte("drop_everything")))

	var status ResponseStatus
	require.NoError(t, status.UnmarshalText([]byte("NotFound")))
	assert.Equal(t, StatusNotFound, status)
	assert.Error(t, status.UnmarshalText([]byte("maybe")))

	assert.Equal(t, http.StatusOK, StatusSuccess.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, StatusNotFound.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, StatusError.HTTPStatus())
}

func TestErrorMutated(t *testing.T) {
	rejected := &Error{Gate: GateDependency, Version: MustParseVersion("1.0.0"), Err: ErrMissingDependency}
	assert.False(t, rejected.Mutated())
	assert.True(t, IsRejected(rejected))
	assert.Equal(t, GateDependency, GateOf(rejected))
	assert.Contains(t, rejected.Error(), "dependency gate")

	partial := &Error{Gate: GateApply, Applied: []ChangeResult{{Kind: KindCreateCollection, Collection: "docs"}}, Err: ErrUnsupportedChange}
	assert.True(t, partial.Mutated())
	assert.False(t, IsRejected(partial))
	assert.True(t, errors.Is(partial, ErrUnsupportedChange))

	indexOnly := &Error{Gate: GateApply, Applied: []ChangeResult{{Kind: KindAddIndex, Collection: "docs", Field: "tenant"}}, Err: ErrUnsupportedChange}
	assert.False(t, indexOnly.Mutated())
	assert.True(t, IsRejected(indexOnly))
	assert.Equal(t, Gate(""), GateOf(errors.New("plain")))
}
