package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/migration"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb/memstore"
)

const (
	docsMigration = `
version: 1.0.0
name: create docs
changes:
  - kind: create_collection
    config: {name: docs, dimension: 4, distance: Cosine}
`
	analyticsMigration = `
version: 1.1.0
name: create analytics
depends_on: [1.0.0]
changes:
  - kind: create_collection
    config: {name: analytics, dimension: 4, distance: Dot}
contracts:
  - consumer: search-service
    provider: vecstore
    interactions:
      - description: search docs
        request: {operation: search_similar, collection: docs}
        response: {status: success}
`
	brokenContractMigration = `
version: 1.2.0
name: needs reports
changes:
  - kind: create_collection
    config: {name: archive, dimension: 4, distance: Cosine}
contracts:
  - consumer: report-service
    interactions:
      - description: search reports
        request: {operation: search_similar, collection: reports}
        response: {status: success}
`
)

type harness struct {
	t      *testing.T
	store  *memstore.Store
	config string
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	dir := t.TempDir()
	return &harness{
		t:      t,
		store:  memstore.New(),
		dir:    dir,
		config: writeFile(t, root, "vecmigrate.yaml", "store:\n  backend: memory\nmigration:\n  dir: "+dir+"\n"),
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runWith(nil, args...)
}

func (h *harness) runWith(extra []fx.Option, args ...string) (string, error) {
	h.t.Helper()
	opts := append([]fx.Option{fx.Decorate(func(vectordb.Store) vectordb.Store { return h.store })}, extra...)
	cmd := newRootCommand(opts...)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) collections() []string {
	h.t.Helper()
	names, err := h.store.ListCollections(h.t.Context())
	require.NoError(h.t, err)
	return names
}

func TestApplyPendingHistoryRollback(t *testing.T) {
	h := newHarness(t)
	writeFile(t, h.dir, "001_docs.yaml", docsMigration)
	writeFile(t, h.dir, "002_analytics.yaml", analyticsMigration)

	out, err := h.run("apply", "--to", "1.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 1.0.0 create docs (1 changes)")
	assert.NotContains(t, out, "1.1.0")
	assert.Equal(t, []string{"_vecschema_migrations", "docs"}, h.collections())

	out, err = h.run("pending")
	require.NoError(t, err)
	assert.Contains(t, out, "1.1.0")
	assert.NotContains(t, out, "1.0.0 ")

	out, err = h.run("apply")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 1.1.0 create analytics")
	assert.Equal(t, []string{"_vecschema_migrations", "analytics", "docs"}, h.collections())

	out, err = h.run("apply")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to apply")

	out, err = h.run("history", "--json")
	require.NoError(t, err)
	var history []migration.SchemaMigration
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "1.0.0", history[0].Version.String())
	assert.Equal(t, "1.1.0", history[1].Version.String())

	out, err = h.run("history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "VERSION"))

	out, err = h.run("rollback", "1.1.0")
	require.NoError(t, err)
	assert.Contains(t, out, "rolled back 1.1.0 (1 changes reverted)")
	assert.Equal(t, []string{"_vecschema_migrations", "docs"}, h.collections())

	_, err = h.run("rollback", "1.1.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, migration.ErrMigrationNotFound)
}

func TestApplyRejectedByContract(t *testing.T) {
	h := newHarness(t)
	writeFile(t, h.dir, "003_archive.yaml", brokenContractMigration)

	out, err := h.run("apply")
	require.Error(t, err)
	assert.ErrorIs(t, err, migration.ErrContractMismatch)
	assert.Contains(t, out, "rejected 1.2.0 needs reports at the contract gate, nothing was changed")
	assert.Equal(t, []string{"_vecschema_migrations"}, h.collections())
}

func TestApplyInvalidArguments(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("apply", "--to", "latest")
	assert.ErrorIs(t, err, migration.ErrInvalidVersion)

	_, err = h.run("rollback")
	assert.Error(t, err)

	_, err = h.run("apply", "--dir", h.dir+"/missing")
	assert.ErrorContains(t, err, "failed to read migration directory")
}

func TestCompileFilterCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    string
		wantErr string
	}{
		{
			name: "scalar",
			args: []string{`{"tenant":"acme"}`},
			want: `{"must":[{"field":"tenant","equalTo":"acme"}]}`,
		},
		{
			name:  "from stdin",
			stdin: `{"tenant":"acme"}`,
			want:  `{"must":[{"field":"tenant","equalTo":"acme"}]}`,
		},
		{
			name: "no usable leaf",
			args: []string{`{"tags":{"$regex":"x"}}`},
			want: `null`,
		},
		{
			name:    "not equal is not implemented",
			args:    []string{`{"status":{"$ne":"archived"}}`},
			wantErr: "not implemented",
		},
		{
			name:    "not equal next to a range is still rejected when skipping",
			args:    []string{`{"status":{"$ne":"archived","$gte":1}}`, "--skip-invalid"},
			wantErr: "not implemented",
		},
		{
			name:    "malformed json",
			args:    []string{`{"tenant":`},
			wantErr: "invalid filter expression",
		},
		{
			name:    "empty",
			stdin:   "  ",
			wantErr: "empty filter expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetIn(strings.NewReader(tt.stdin))
			cmd.SetArgs(append([]string{"compile-filter"}, tt.args...))

			err := cmd.Execute()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, out.String())
		})
	}
}

func TestApplyPublishesEvents(t *testing.T) {
	h := newHarness(t)
	writeFile(t, h.dir, "001_docs.yaml", docsMigration)

	var events []migration.Event
	publisher := fx.Provide(func() migration.EventPublisher {
		return migration.EventPublisherFunc(func(_ context.Context, e migration.Event) error {
			events = append(events, e)
			return nil
		})
	})

	_, err := h.runWith([]fx.Option{publisher}, "apply")
	require.NoError(t, err)
	_, err = h.runWith([]fx.Option{publisher}, "rollback", "1.0.0")
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, migration.EventApplied, events[0].Type)
	assert.Equal(t, migration.MustParseVersion("1.0.0"), events[0].Version)
	assert.Equal(t, "1.0.0", events[1].Version.String())
	assert.Equal(t, migration.EventRolledBack, events[1].Type)
}

func TestAppOptionsGraph(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "memory", mutate: func(c *Config) { c.Store.Backend = StoreMemory }},
		{name: "qdrant", mutate: func(c *Config) {}},
		{name: "redis lock and minio archive", mutate: func(c *Config) {
			c.Lock.Backend = LockRedis
			c.Archive.Backend = ArchiveMinio
		}},
		{name: "rabbit events", mutate: func(c *Config) { c.Events.Backend = EventsRabbit }},
		{name: "kafka events", mutate: func(c *Config) { c.Events.Backend = EventsKafka }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			opts := append(appOptions(cfg), fx.Populate(new(*migration.Manager)))
			assert.NoError(t, fx.ValidateApp(opts...))
		})
	}
}
