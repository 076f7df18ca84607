package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// Put uploads an object to the configured bucket.
func (m *MinioClient) Put(ctx context.Context, objectKey string, reader io.Reader, size ...int64) (int64, error) {
	start := time.Now()
	key := m.objectKey(objectKey)

	actualSize := unknownSize
	if len(size) > 0 && size[0] >= 0 {
		actualSize = size[0]
	}

	info, err := m.client.PutObject(ctx, m.cfg.Connection.BucketName, key, reader, actualSize, minio.PutObjectOptions{
		PartSize:    m.cfg.UploadConfig.MinPartSize,
		ContentType: contentType(objectKey),
	})
	err = TranslateError(err)
	m.observeOperation("put", "", key, time.Since(start), err, info.Size, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return info.Size, nil
}

// Get retrieves an object and returns its contents. Missing objects return ErrObjectNotFound.
func (m *MinioClient) Get(ctx context.Context, objectKey string) ([]byte, error) {
	start := time.Now()
	key := m.objectKey(objectKey)

	data, err := m.get(ctx, key)
	m.observeOperation("get", "", key, time.Since(start), err, int64(len(data)), nil)
	return data, err
}

func (m *MinioClient) get(ctx context.Context, key string) ([]byte, error) {
	reader, err := m.client.GetObject(ctx, m.cfg.Connection.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", TranslateError(err))
	}
	defer func(reader io.ReadCloser) {
		if err := reader.Close(); err != nil {
			m.logger.Error("failed to close object reader", err, map[string]interface{}{"key": key})
		}
	}(reader)

	// GetObject is lazy; a missing key surfaces on the first read
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", TranslateError(err))
	}
	return data, nil
}

// Exists reports whether an object is present.
func (m *MinioClient) Exists(ctx context.Context, objectKey string) (bool, error) {
	key := m.objectKey(objectKey)
	_, err := m.client.StatObject(ctx, m.cfg.Connection.BucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if err = TranslateError(err); IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Delete removes an object from the configured bucket.
func (m *MinioClient) Delete(ctx context.Context, objectKey string) error {
	start := time.Now()
	key := m.objectKey(objectKey)

	err := TranslateError(m.client.RemoveObject(ctx, m.cfg.Connection.BucketName, key, minio.RemoveObjectOptions{}))
	m.observeOperation("delete", "", key, time.Since(start), err, 0, nil)
	return err
}

// List returns the object keys under prefix, relative to the configured Prefix.
func (m *MinioClient) List(ctx context.Context, prefix string) ([]string, error) {
	root := m.objectKey("")
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.cfg.Connection.BucketName, minio.ListObjectsOptions{
		Prefix:    m.objectKey(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, TranslateError(obj.Err)
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, root))
	}
	return keys, nil
}

func contentType(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "application/json"
	}
	return "application/octet-stream"
}
