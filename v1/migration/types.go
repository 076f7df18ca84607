package migration

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SchemaMigration is a versioned, ordered set of collection changes with
// metadata and the consumer contracts that gate it. Build one with NewBuilder.
type SchemaMigration struct {
	Version   Version    `json:"version" yaml:"version"`
	Name      string     `json:"name" yaml:"name"`
	Changes   ChangeList `json:"changes" yaml:"changes"`
	Metadata  Metadata   `json:"metadata" yaml:"metadata"`
	Contracts []Contract `json:"contracts" yaml:"contracts"`
}

// Metadata describes who wrote a migration and how it relates to others.
type Metadata struct {
	Author         string    `json:"author" yaml:"author"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	Description    string    `json:"description" yaml:"description"`
	Dependencies   []Version `json:"dependencies" yaml:"dependencies"`
	Reversible     bool      `json:"reversible" yaml:"reversible"`
	BreakingChange bool      `json:"breaking_change" yaml:"breaking_change"`
}

// Clone returns a deep copy.
func (m SchemaMigration) Clone() SchemaMigration {
	out := m
	out.Changes = m.Changes.clone()
	out.Metadata.Dependencies = append([]Version(nil), m.Metadata.Dependencies...)
	if m.Contracts != nil {
		out.Contracts = make([]Contract, len(m.Contracts))
		for i, c := range m.Contracts {
			out.Contracts[i] = c.clone()
		}
	}
	return out
}

// IndexKind names the kind of payload index an AddIndex change declares.
type IndexKind string

const (
	IndexText    IndexKind = "text"
	IndexNumeric IndexKind = "numeric"
	IndexKeyword IndexKind = "keyword"
	IndexGeo     IndexKind = "geo"
	IndexBoolean IndexKind = "boolean"
)

// UnmarshalText accepts the index kinds in any letter case.
func (k *IndexKind) UnmarshalText(text []byte) error {
	switch kind := IndexKind(strings.ToLower(string(text))); kind {
	case IndexText, IndexNumeric, IndexKeyword, IndexGeo, IndexBoolean:
		*k = kind
		return nil
	}
	return fmt.Errorf("%w: unknown index kind %q", ErrInvalidMigration, text)
}

// Contract is a consumer-driven description of the interactions a consumer
// expects the vector store to honor.
type Contract struct {
	Consumer     string        `json:"consumer" yaml:"consumer"`
	Provider     string        `json:"provider" yaml:"provider"`
	ContractPath string        `json:"contract_path" yaml:"contract_path"`
	Interactions []Interaction `json:"interactions" yaml:"interactions"`
}

func (c Contract) clone() Contract {
	out := c
	if c.Interactions == nil {
		return out
	}
	out.Interactions = make([]Interaction, len(c.Interactions))
	for i, in := range c.Interactions {
		out.Interactions[i] = in
		out.Interactions[i].Request.Parameters = cloneMap(in.Request.Parameters)
		out.Interactions[i].Response.Data = cloneAny(in.Response.Data)
	}
	return out
}

// Interaction pairs one request against the store with its expected response.
type Interaction struct {
	Description string   `json:"description" yaml:"description"`
	Request     Request  `json:"request" yaml:"request"`
	Response    Response `json:"response" yaml:"response"`
}

// Request is the store operation an interaction performs.
type Request struct {
	Operation  Operation      `json:"operation" yaml:"operation"`
	Collection string         `json:"collection" yaml:"collection"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Response is the expected outcome of an interaction.
type Response struct {
	Status ResponseStatus `json:"status" yaml:"status"`
	Data   any            `json:"data,omitempty" yaml:"data,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Operation is a store operation that a contract interaction can exercise.
type Operation string

const (
	OpStoreVector      Operation = "store_vector"
	OpGetVector        Operation = "get_vector"
	OpSearchSimilar    Operation = "search_similar"
	OpDeleteVector     Operation = "delete_vector"
	OpCreateCollection Operation = "create_collection"
	OpDeleteCollection Operation = "delete_collection"
	OpListCollections  Operation = "list_collections"
)

// UnmarshalText accepts snake_case names and the CamelCase spelling
// ("SearchSimilar") used by older contract files.
func (o *Operation) UnmarshalText(text []byte) error {
	op := Operation(snakeCase(string(text)))
	switch op {
	case OpStoreVector, OpGetVector, OpSearchSimilar, OpDeleteVector,
		OpCreateCollection, OpDeleteCollection, OpListCollections:
		*o = op
		return nil
	}
	return fmt.Errorf("%w: unknown operation %q", ErrInvalidMigration, text)
}

// ResponseStatus is the outcome class of an interaction.
type ResponseStatus string

const (
	StatusSuccess  ResponseStatus = "success"
	StatusError    ResponseStatus = "error"
	StatusNotFound ResponseStatus = "not_found"
)

// UnmarshalText accepts "success", "error" and "not_found" in snake or CamelCase.
func (s *ResponseStatus) UnmarshalText(text []byte) error {
	status := ResponseStatus(snakeCase(string(text)))
	switch status {
	case StatusSuccess, StatusError, StatusNotFound:
		*s = status
		return nil
	}
	return fmt.Errorf("%w: unknown response status %q", ErrInvalidMigration, text)
}

// HTTPStatus maps the status onto the HTTP code used in Pact documents.
func (s ResponseStatus) HTTPStatus() int {
	switch s {
	case StatusSuccess:
		return http.StatusOK
	case StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ChangeResult reports one change applied or reversed by the manager.
type ChangeResult struct {
	Kind       ChangeKind `json:"kind"`
	Collection string     `json:"collection"`
	Field      string     `json:"field,omitempty"`
	IndexKind  IndexKind  `json:"index_kind,omitempty"`
}

// Stored reports whether the change reached the store. Index changes are
// recorded for documentation only.
func (r ChangeResult) Stored() bool {
	return r.Kind == KindCreateCollection || r.Kind == KindDeleteCollection
}

func storedAny(results []ChangeResult) bool {
	for _, r := range results {
		if r.Stored() {
			return true
		}
	}
	return false
}

func (r ChangeResult) String() string {
	if r.Field != "" {
		return fmt.Sprintf("%s %s.%s", r.Kind, r.Collection, r.Field)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Collection)
}

// Result is returned by Apply and Rollback.
type Result struct {
	// Version is the migration that was applied or rolled back
	Version Version

	// Applied lists the changes performed, in the order they were performed
	Applied []ChangeResult

	// ContractsValidated is true once every contract passed validation
	ContractsValidated bool

	// Partial is set when a change failed after earlier changes reached the store
	Partial bool
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '_' {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAny(v)
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneAny(e)
		}
		return out
	default:
		return v
	}
}
