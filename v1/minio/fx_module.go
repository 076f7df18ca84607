package minio

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// FXModule provides *MinioClient and the Client interface.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(minio.DefaultConfig()),
//	    logger.FXModule,
//	    minio.FXModule,
//	)
var FXModule = fx.Module("minio",
	fx.Provide(
		NewClientWithDI,
		func(m *MinioClient) Client { return m },
	),
)

// MinioParams groups the dependencies needed to create a MinIO client.
type MinioParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a MinIO client from injected dependencies.
func NewClientWithDI(p MinioParams) (*MinioClient, error) {
	client, err := NewClient(p.Config, p.Logger)
	if err != nil {
		return nil, err
	}
	return client.WithObserver(p.Observer), nil
}
