package migration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const (
	recordType   = "schema_migration"
	typeKey      = "type"
	migrationKey = "migration"
)

// historyVector is stored with every record. The history collection is never
// searched by similarity, so one dimension is enough.
var historyVector = []float32{1}

func historyConfig(name string) vectordb.CollectionConfig {
	return vectordb.CollectionConfig{Name: name, Dimension: len(historyVector), Distance: vectordb.DotProduct}
}

// historyFilter selects migration records among anything else stored in the collection.
func historyFilter() (*vectordb.FilterSet, error) {
	return vectordb.CompileMap(map[string]any{typeKey: recordType})
}

// encodeRecord stores the migration as a JSON object under "migration" in the payload.
func encodeRecord(m SchemaMigration) (vectordb.Record, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return vectordb.Record{}, fmt.Errorf("failed to encode migration %s: %w", m.Version, err)
	}
	var payload map[string]any
	if err := decodeJSON(data, &payload); err != nil {
		return vectordb.Record{}, fmt.Errorf("failed to encode migration %s: %w", m.Version, err)
	}
	return vectordb.Record{
		ID:     m.Version.Key(),
		Vector: historyVector,
		Payload: map[string]any{
			typeKey:      recordType,
			migrationKey: payload,
		},
	}, nil
}

func decodeRecord(rec vectordb.Record) (SchemaMigration, error) {
	raw, ok := rec.Payload[migrationKey]
	if !ok {
		return SchemaMigration{}, fmt.Errorf("%w: record %s has no %q payload", ErrCorruptHistory, rec.ID, migrationKey)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return SchemaMigration{}, fmt.Errorf("%w: record %s: %v", ErrCorruptHistory, rec.ID, err)
	}
	var m SchemaMigration
	if err := decodeJSON(data, &m); err != nil {
		return SchemaMigration{}, fmt.Errorf("%w: record %s: %v", ErrCorruptHistory, rec.ID, err)
	}
	return m, nil
}

// decodeRecords decodes every record and sorts the migrations by version.
func decodeRecords(records []vectordb.Record) ([]SchemaMigration, error) {
	out := make([]SchemaMigration, 0, len(records))
	for _, rec := range records {
		m, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	SortByVersion(out)
	return out, nil
}

// SortByVersion sorts migrations ascending by semver precedence.
func SortByVersion(migrations []SchemaMigration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version.Less(migrations[j].Version)
	})
}

// decodeJSON keeps numbers as json.Number so large integers survive a round trip.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
