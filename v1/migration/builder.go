package migration

import (
	"time"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const defaultAuthor = "unknown"

// Builder assembles a SchemaMigration with chained calls. Changes and
// contracts keep the order in which they were added. Build never fails;
// the manager validates a migration when it is applied.
//
// Example:
//
//	m := migration.NewBuilder(migration.MustParseVersion("1.1.0"), "add analytics").
//	    Author("search-team").
//	    DependsOn(migration.MustParseVersion("1.0.0")).
//	    CreateCollection(vectordb.CollectionConfig{Name: "analytics", Dimension: 512, Distance: vectordb.DotProduct}).
//	    Build()
type Builder struct {
	migration SchemaMigration
}

// NewBuilder starts a reversible migration authored by "unknown" and created now.
func NewBuilder(version Version, name string) *Builder {
	return &Builder{migration: SchemaMigration{
		Version: version,
		Name:    name,
		Metadata: Metadata{
			Author:     defaultAuthor,
			CreatedAt:  time.Now().UTC().Round(0),
			Reversible: true,
		},
	}}
}

// Author sets who wrote the migration.
func (b *Builder) Author(author string) *Builder {
	b.migration.Metadata.Author = author
	return b
}

// Description sets a free-form description.
func (b *Builder) Description(description string) *Builder {
	b.migration.Metadata.Description = description
	return b
}

// CreatedAt overrides the creation time, e.g. for definitions loaded from files.
func (b *Builder) CreatedAt(t time.Time) *Builder {
	b.migration.Metadata.CreatedAt = t.UTC().Round(0)
	return b
}

// DependsOn adds versions that must be applied before this migration.
func (b *Builder) DependsOn(versions ...Version) *Builder {
	b.migration.Metadata.Dependencies = append(b.migration.Metadata.Dependencies, versions...)
	return b
}

// BreakingChange marks the migration as incompatible with existing consumers.
func (b *Builder) BreakingChange() *Builder {
	b.migration.Metadata.BreakingChange = true
	return b
}

// NonReversible marks the migration as one that Rollback must refuse.
func (b *Builder) NonReversible() *Builder {
	b.migration.Metadata.Reversible = false
	return b
}

// CreateCollection records the creation of a collection.
func (b *Builder) CreateCollection(cfg vectordb.CollectionConfig) *Builder {
	return b.AddChange(CreateCollection{Config: cfg})
}

// DeleteCollection records the deletion of a collection.
func (b *Builder) DeleteCollection(name string) *Builder {
	return b.AddChange(DeleteCollection{Name: name})
}

// UpdateCollection records an in-place change. A nil dimension or distance means unchanged.
func (b *Builder) UpdateCollection(name string, dimension *int, distance *vectordb.DistanceMetric) *Builder {
	return b.AddChange(UpdateCollection{Name: name, Dimension: dimension, Distance: distance})
}

// RenameCollection records a rename from oldName to newName.
func (b *Builder) RenameCollection(oldName, newName string) *Builder {
	return b.AddChange(RenameCollection{OldName: oldName, NewName: newName})
}

// AddIndex records a payload index on field.
func (b *Builder) AddIndex(collection, field string, kind IndexKind) *Builder {
	return b.AddChange(AddIndex{Collection: collection, Field: field, Index: kind})
}

// RemoveIndex records the removal of the payload index on field.
func (b *Builder) RemoveIndex(collection, field string) *Builder {
	return b.AddChange(RemoveIndex{Collection: collection, Field: field})
}

// AddChange appends any change.
func (b *Builder) AddChange(change CollectionChange) *Builder {
	b.migration.Changes = append(b.migration.Changes, change)
	return b
}

// AddContract appends a consumer contract that gates the migration.
func (b *Builder) AddContract(contract Contract) *Builder {
	b.migration.Contracts = append(b.migration.Contracts, contract)
	return b
}

// Build returns a copy of the migration. Later builder calls do not affect it.
func (b *Builder) Build() SchemaMigration {
	return b.migration.Clone()
}
