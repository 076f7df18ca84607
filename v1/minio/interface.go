package minio

import (
	"context"
	"io"
)

// Client provides the object operations used to archive contract documents.
//
// This interface is implemented by the concrete *MinioClient type.
type Client interface {
	// Put uploads an object and returns the number of bytes stored.
	Put(ctx context.Context, objectKey string, reader io.Reader, size ...int64) (int64, error)

	// Get retrieves an object and returns its contents.
	Get(ctx context.Context, objectKey string) ([]byte, error)

	// Exists reports whether an object is present.
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Delete removes an object.
	Delete(ctx context.Context, objectKey string) error

	// List returns the keys under prefix, relative to the configured Prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// compile-time check
var _ Client = (*MinioClient)(nil)
