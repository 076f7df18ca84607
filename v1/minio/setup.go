package minio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// MinioClient wraps the MinIO client and scopes every operation to the
// configured bucket and key prefix.
type MinioClient struct {
	// client is the standard MinIO client
	client *minio.Client

	// cfg holds the configuration for this MinIO client instance
	cfg Config

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// logger records connection and bucket events
	logger logger.Logger
}

// NewClient connects to MinIO, validates the credentials and creates the
// configured bucket when it is missing.
//
// Example:
//
//	client, err := minio.NewClient(minio.DefaultConfig(), log)
//	if err != nil {
//	    return err
//	}
func NewClient(cfg Config, log logger.Logger) (*MinioClient, error) {
	if log == nil {
		log = logger.NewNop()
	}

	client, err := connectToMinio(cfg, log)
	if err != nil {
		log.Error("failed to connect to minio", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"region":   cfg.Connection.Region,
			"secure":   cfg.Connection.UseSSL,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}

	m := &MinioClient{
		client: client,
		cfg:    cfg,
		logger: log,
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.validateConnection(timeoutCtx); err != nil {
		log.Error("failed to validate minio connection", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}
	if err := m.ensureBucketExists(timeoutCtx); err != nil {
		log.Error("failed to verify bucket", err, map[string]interface{}{
			"endpoint": cfg.Connection.Endpoint,
			"bucket":   cfg.Connection.BucketName,
		})
		return nil, err
	}

	return m, nil
}

// connectToMinio creates a new MinIO client from the connection settings.
func connectToMinio(cfg Config, log logger.Logger) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}

	log.Info("Connecting to MinIO", nil, map[string]interface{}{
		"endpoint": cfg.Connection.Endpoint,
		"region":   cfg.Connection.Region,
		"secure":   cfg.Connection.UseSSL,
	})

	return minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
}

// validateConnection lists buckets to ensure the connection and credentials are valid.
func (m *MinioClient) validateConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := m.client.ListBuckets(ctx); err != nil {
		return TranslateError(err)
	}
	return nil
}

// ensureBucketExists checks if the configured bucket exists and creates it if necessary.
func (m *MinioClient) ensureBucketExists(ctx context.Context) error {
	bucketName := m.cfg.Connection.BucketName
	if bucketName == "" {
		return fmt.Errorf("bucket name is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", bucketName, TranslateError(err))
	}
	if exists {
		return nil
	}

	m.logger.Info("Bucket does not exist, creating it", nil, map[string]interface{}{
		"bucket": bucketName,
		"region": m.cfg.Connection.Region,
	})
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Connection.Region}); err != nil {
		return TranslateError(err)
	}
	m.logger.Info("Successfully created bucket", nil, map[string]interface{}{
		"bucket": bucketName,
	})
	return nil
}

// objectKey applies the configured prefix.
func (m *MinioClient) objectKey(key string) string {
	if m.cfg.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(m.cfg.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (m *MinioClient) WithObserver(observer observability.Observer) *MinioClient {
	m.observer = observer
	return m
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (m *MinioClient) WithLogger(l logger.Logger) *MinioClient {
	if l != nil {
		m.logger = l
	}
	return m
}
