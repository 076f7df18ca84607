package vectordb

import (
	"fmt"
	"strings"
)

// DistanceMetric is the similarity function a collection is configured with.
type DistanceMetric string

const (
	Cosine     DistanceMetric = "Cosine"
	Euclidean  DistanceMetric = "Euclidean"
	DotProduct DistanceMetric = "DotProduct"
	Manhattan  DistanceMetric = "Manhattan"
)

// ParseDistanceMetric accepts the canonical names plus the short forms used by
// backends ("Euclid", "Dot") in any letter case.
func ParseDistanceMetric(s string) (DistanceMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine":
		return Cosine, nil
	case "euclidean", "euclid":
		return Euclidean, nil
	case "dotproduct", "dot_product", "dot":
		return DotProduct, nil
	case "manhattan":
		return Manhattan, nil
	}
	return "", fmt.Errorf("%w: unknown distance metric %q", ErrInvalidConfig, s)
}

// CollectionConfig describes a collection to be created.
type CollectionConfig struct {
	// Name is the unique identifier of the collection
	Name string `json:"name"`

	// Dimension is the size of every vector stored in the collection
	Dimension int `json:"dimension"`

	// Distance is the similarity metric used for search
	Distance DistanceMetric `json:"distance_metric"`
}

// NewCollectionConfig returns a validated collection configuration.
func NewCollectionConfig(name string, dimension int, distance DistanceMetric) (CollectionConfig, error) {
	cfg := CollectionConfig{Name: name, Dimension: dimension, Distance: distance}
	if err := cfg.Validate(); err != nil {
		return CollectionConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be created by a backend.
func (c CollectionConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be greater than 0, got %d", ErrInvalidConfig, c.Dimension)
	}
	if _, err := ParseDistanceMetric(string(c.Distance)); err != nil {
		return err
	}
	return nil
}

// Record is a single vector with its identifier and payload metadata.
type Record struct {
	// ID is the unique identifier of the record within its collection
	ID string `json:"id"`

	// Vector is the dense embedding
	Vector []float32 `json:"vector"`

	// Payload is optional metadata stored with the vector
	Payload map[string]any `json:"payload,omitempty"`
}

// SearchParams controls a similarity search.
type SearchParams struct {
	// Limit is the maximum number of results to return
	Limit int `json:"limit"`

	// ScoreThreshold drops results scoring below it when set
	ScoreThreshold *float32 `json:"scoreThreshold,omitempty"`

	// Filter is the compiled query results must satisfy
	Filter *FilterSet `json:"filter,omitempty"`

	// IncludeVectors returns stored embeddings with the results
	IncludeVectors bool `json:"includeVectors,omitempty"`
}

// SearchResult represents a single search result with its similarity score.
// This is database-agnostic: payload is converted to map[string]any.
type SearchResult struct {
	// Record is the matched record; Vector is only populated if requested
	Record Record `json:"record"`

	// Score is the similarity score (higher = more similar)
	Score float32 `json:"score"`
}

// Collection contains metadata about a vector collection.
type Collection struct {
	// Name is the unique identifier of the collection
	Name string `json:"name"`

	// Status indicates the operational state (e.g., "Green", "Yellow")
	Status string `json:"status"`

	// VectorSize is the dimension of vectors in this collection
	VectorSize int `json:"vectorSize"`

	// Distance is the similarity metric
	Distance DistanceMetric `json:"distance"`

	// PointCount is the number of stored points/documents
	PointCount uint64 `json:"pointCount"`
}
