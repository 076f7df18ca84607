package migration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const analyticsDefinition = `
version: 1.1.0
name: add analytics
author: search-team
description: analytics embeddings
depends_on: [1.0.0]
breaking_change: true
changes:
  - kind: create_collection
    config: {name: analytics, dimension: 512, distance: Dot}
  - kind: add_index
    collection: analytics
    field: tenant
    index_kind: keyword
contracts:
  - consumer: search-service
    provider: vecstore
    contract_path: pacts/search-service.json
    interactions:
      - description: search docs
        request:
          operation: search_similar
          collection: docs
          parameters: {limit: 3}
        response:
          status: success
`

func writeDefinition(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestParseDefinition(t *testing.T) {
	m, err := ParseDefinition([]byte(analyticsDefinition))
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", m.Version.String())
	assert.Equal(t, "add analytics", m.Name)
	assert.Equal(t, "search-team", m.Metadata.Author)
	assert.Equal(t, "analytics embeddings", m.Metadata.Description)
	assert.True(t, m.Metadata.BreakingChange)
	assert.True(t, m.Metadata.Reversible)
	require.Len(t, m.Metadata.Dependencies, 1)
	assert.Equal(t, "1.0.0", m.Metadata.Dependencies[0].String())

	require.Len(t, m.Changes, 2)
	create, ok := m.Changes[0].(CreateCollection)
	require.True(t, ok)
	assert.Equal(t, "analytics", create.Config.Name)
	assert.Equal(t, 512, create.Config.Dimension)
	assert.Equal(t, AddIndex{Collection: "analytics", Field: "tenant", Index: IndexKeyword}, m.Changes[1])

	require.Len(t, m.Contracts, 1)
	contract := m.Contracts[0]
	assert.Equal(t, "search-service", contract.Consumer)
	require.Len(t, contract.Interactions, 1)
	assert.Equal(t, OpSearchSimilar, contract.Interactions[0].Request.Operation)
	assert.Equal(t, StatusSuccess, contract.Interactions[0].Response.Status)
	assert.Equal(t, 3, contract.Interactions[0].Request.Parameters["limit"])
}

func TestParseDefinition_Defaults(t *testing.T) {
	m, err := ParseDefinition([]byte("version: v2.0.0\nname: drop legacy\nreversible: false\nchanges:\n  - kind: delete_collection\n    name: legacy\n"))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", m.Version.String())
	assert.Equal(t, "unknown", m.Metadata.Author)
	assert.False(t, m.Metadata.Reversible)
	assert.Equal(t, ChangeList{DeleteCollection{Name: "legacy"}}, m.Changes)
	assert.False(t, m.Metadata.CreatedAt.IsZero())
}

func TestParseDefinition_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"missing version": "name: nameless\n",
		"bad version":     "version: one\nname: x\n",
		"unknown field":   "version: 1.0.0\nname: x\nowner: me\n",
		"unknown change":  "version: 1.0.0\nchanges:\n  - kind: truncate\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMigration), err.Error())
		})
	}
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "003_analytics.yaml", analyticsDefinition)
	writeDefinition(t, dir, "001_docs.yml", "version: 1.0.0\nname: docs\nchanges:\n  - kind: create_collection\n    config: {name: docs, dimension: 768, distance: Cosine}\n")
	writeDefinition(t, dir, "002_patch.yaml", "version: 1.0.10\nname: patch\ndepends_on: [1.0.0]\n")
	writeDefinition(t, dir, "README.md", "not a migration")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	migrations, err := LoadDefinitions(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.0.10", "1.1.0"}, versions(migrations))

	create := migrations[0].Changes[0].(CreateCollection)
	assert.Equal(t, vectordb.Cosine, create.Config.Distance)
}

func TestLoadDefinitions_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "a.yaml", "version: 1.0.0\nname: a\n")
	writeDefinition(t, dir, "b.yaml", "version: v1.0.0\nname: b\n")

	_, err := LoadDefinitions(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateVersion))
}

func TestLoadDefinitions_BadFileNamesPath(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "broken.yaml", "version: [\n")

	_, err := LoadDefinitions(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	_, err = LoadDefinitions(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
