package vectordb

import (
	"errors"
	"fmt"
)

// Common vector store error types. Backends wrap their native errors in one
// of these so consumers can handle failures in a backend-agnostic way.
var (
	// ErrCollectionNotFound is returned when the target collection does not exist
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when creating a collection that already exists
	ErrCollectionExists = errors.New("collection already exists")

	// ErrVectorNotFound is returned when no record has the requested ID
	ErrVectorNotFound = errors.New("vector not found")

	// ErrInvalidConfig is returned for collection configs a backend cannot create
	ErrInvalidConfig = errors.New("invalid collection config")

	// ErrStorage is returned when the backend rejected or failed a call
	ErrStorage = errors.New("storage failure")

	// ErrInvalidFilter is returned for malformed filter operators or values
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNotImplemented is returned for operators that are declared but unsupported
	ErrNotImplemented = errors.New("not implemented")
)

// IsNotFound reports whether err means a collection or a record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCollectionNotFound) || errors.Is(err, ErrVectorNotFound)
}

// IsAlreadyExists reports whether err means a collection already exists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrCollectionExists)
}

// FilterError describes why one field of a filter expression could not be compiled.
type FilterError struct {
	// Field is the payload field the failing expression was attached to
	Field string

	// Operator is the operator key involved (e.g. "$ne"), empty for scalars
	Operator string

	// Err is ErrInvalidFilter or ErrNotImplemented, possibly wrapped with detail
	Err error
}

func (e *FilterError) Error() string {
	if e.Operator == "" {
		return fmt.Sprintf("filter field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("filter field %q operator %s: %v", e.Field, e.Operator, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }
