package migration

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// ChangeKind tags the variants of CollectionChange in JSON and YAML.
type ChangeKind string

const (
	KindCreateCollection ChangeKind = "create_collection"
	KindDeleteCollection ChangeKind = "delete_collection"
	KindUpdateCollection ChangeKind = "update_collection"
	KindRenameCollection ChangeKind = "rename_collection"
	KindAddIndex         ChangeKind = "add_index"
	KindRemoveIndex      ChangeKind = "remove_index"
)

// CollectionChange is one schema change of a migration. The set of
// implementations is closed: CreateCollection, DeleteCollection,
// UpdateCollection, RenameCollection, AddIndex and RemoveIndex.
type CollectionChange interface {
	// Kind returns the variant tag.
	Kind() ChangeKind

	// Target returns the collection the change affects.
	Target() string

	isCollectionChange()
}

// CreateCollection creates a collection. Rolling back deletes it.
type CreateCollection struct {
	Config vectordb.CollectionConfig
}

// DeleteCollection drops a collection with its data. It cannot be rolled back.
type DeleteCollection struct {
	Name string
}

// UpdateCollection changes the dimension or distance of a collection. The
// store cannot mutate a collection in place, so applying it always fails;
// it documents a change that needs a manual data migration.
type UpdateCollection struct {
	Name      string
	Dimension *int
	Distance  *vectordb.DistanceMetric
}

// RenameCollection renames a collection. Applying it always fails, like UpdateCollection.
type RenameCollection struct {
	OldName string
	NewName string
}

// AddIndex declares a payload index. The store indexes payloads on its own,
// so applying it records the intent without a backend call.
type AddIndex struct {
	Collection string
	Field      string
	Index      IndexKind
}

// RemoveIndex declares that a payload index is no longer needed.
type RemoveIndex struct {
	Collection string
	Field      string
}

func (CreateCollection) Kind() ChangeKind { return KindCreateCollection }
func (DeleteCollection) Kind() ChangeKind { return KindDeleteCollection }
func (UpdateCollection) Kind() ChangeKind { return KindUpdateCollection }
func (RenameCollection) Kind() ChangeKind { return KindRenameCollection }
func (AddIndex) Kind() ChangeKind         { return KindAddIndex }
func (RemoveIndex) Kind() ChangeKind      { return KindRemoveIndex }

func (c CreateCollection) Target() string { return c.Config.Name }
func (c DeleteCollection) Target() string { return c.Name }
func (c UpdateCollection) Target() string { return c.Name }
func (c RenameCollection) Target() string { return c.OldName }
func (c AddIndex) Target() string         { return c.Collection }
func (c RemoveIndex) Target() string      { return c.Collection }

func (CreateCollection) isCollectionChange() {}
func (DeleteCollection) isCollectionChange() {}
func (UpdateCollection) isCollectionChange() {}
func (RenameCollection) isCollectionChange() {}
func (AddIndex) isCollectionChange()         {}
func (RemoveIndex) isCollectionChange()      {}

// ChangeList is an ordered list of changes. It encodes every change as an
// object tagged with "kind".
type ChangeList []CollectionChange

// changeEnvelope is the flat wire form of a CollectionChange.
type changeEnvelope struct {
	Kind       ChangeKind                 `json:"kind" yaml:"kind"`
	Config     *vectordb.CollectionConfig `json:"config,omitempty" yaml:"config,omitempty"`
	Name       string                     `json:"name,omitempty" yaml:"name,omitempty"`
	Dimension  *int                       `json:"dimension,omitempty" yaml:"dimension,omitempty"`
	Distance   *vectordb.DistanceMetric   `json:"distance,omitempty" yaml:"distance,omitempty"`
	OldName    string                     `json:"old_name,omitempty" yaml:"old_name,omitempty"`
	NewName    string                     `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	Collection string                     `json:"collection,omitempty" yaml:"collection,omitempty"`
	Field      string                     `json:"field,omitempty" yaml:"field,omitempty"`
	IndexKind  IndexKind                  `json:"index_kind,omitempty" yaml:"index_kind,omitempty"`
}

func envelopeOf(c CollectionChange) (changeEnvelope, error) {
	switch v := c.(type) {
	case CreateCollection:
		cfg := v.Config
		return changeEnvelope{Kind: KindCreateCollection, Config: &cfg}, nil
	case DeleteCollection:
		return changeEnvelope{Kind: KindDeleteCollection, Name: v.Name}, nil
	case UpdateCollection:
		return changeEnvelope{Kind: KindUpdateCollection, Name: v.Name, Dimension: v.Dimension, Distance: v.Distance}, nil
	case RenameCollection:
		return changeEnvelope{Kind: KindRenameCollection, OldName: v.OldName, NewName: v.NewName}, nil
	case AddIndex:
		return changeEnvelope{Kind: KindAddIndex, Collection: v.Collection, Field: v.Field, IndexKind: v.Index}, nil
	case RemoveIndex:
		return changeEnvelope{Kind: KindRemoveIndex, Collection: v.Collection, Field: v.Field}, nil
	}
	return changeEnvelope{}, fmt.Errorf("%w: unknown change type %T", ErrInvalidMigration, c)
}

func (e changeEnvelope) change() (CollectionChange, error) {
	switch e.Kind {
	case KindCreateCollection:
		if e.Config == nil {
			return nil, fmt.Errorf("%w: %s without config", ErrInvalidMigration, e.Kind)
		}
		return CreateCollection{Config: *e.Config}, nil
	case KindDeleteCollection:
		return DeleteCollection{Name: e.Name}, nil
	case KindUpdateCollection:
		return UpdateCollection{Name: e.Name, Dimension: e.Dimension, Distance: e.Distance}, nil
	case KindRenameCollection:
		return RenameCollection{OldName: e.OldName, NewName: e.NewName}, nil
	case KindAddIndex:
		return AddIndex{Collection: e.Collection, Field: e.Field, Index: e.IndexKind}, nil
	case KindRemoveIndex:
		return RemoveIndex{Collection: e.Collection, Field: e.Field}, nil
	}
	return nil, fmt.Errorf("%w: unknown change kind %q", ErrInvalidMigration, e.Kind)
}

func (l ChangeList) envelopes() ([]changeEnvelope, error) {
	out := make([]changeEnvelope, len(l))
	for i, c := range l {
		env, err := envelopeOf(c)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out[i] = env
	}
	return out, nil
}

func fromEnvelopes(envs []changeEnvelope) (ChangeList, error) {
	if len(envs) == 0 {
		return nil, nil
	}
	out := make(ChangeList, len(envs))
	for i, env := range envs {
		c, err := env.change()
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// MarshalJSON encodes the list as tagged objects.
func (l ChangeList) MarshalJSON() ([]byte, error) {
	envs, err := l.envelopes()
	if err != nil {
		return nil, err
	}
	return json.Marshal(envs)
}

// UnmarshalJSON decodes tagged objects. An empty array decodes to nil.
func (l *ChangeList) UnmarshalJSON(data []byte) error {
	var envs []changeEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	out, err := fromEnvelopes(envs)
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// MarshalYAML encodes the list as tagged mappings.
func (l ChangeList) MarshalYAML() (interface{}, error) {
	return l.envelopes()
}

// UnmarshalYAML decodes tagged mappings.
func (l *ChangeList) UnmarshalYAML(node *yaml.Node) error {
	var envs []changeEnvelope
	if err := node.Decode(&envs); err != nil {
		return err
	}
	out, err := fromEnvelopes(envs)
	if err != nil {
		return err
	}
	*l = out
	return nil
}

func (l ChangeList) clone() ChangeList {
	if l == nil {
		return nil
	}
	out := make(ChangeList, len(l))
	for i, c := range l {
		if u, ok := c.(UpdateCollection); ok {
			if u.Dimension != nil {
				d := *u.Dimension
				u.Dimension = &d
			}
			if u.Distance != nil {
				m := *u.Distance
				u.Distance = &m
			}
			c = u
		}
		out[i] = c
	}
	return out
}
