package qdrant

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// FXModule defines the Fx module for the Qdrant client.
//
// The module:
//  1. Provides the NewQdrantClient factory function to the dependency injection container.
//  2. Provides the Adapter, also exposed as vectordb.Store.
//  3. Invokes RegisterQdrantLifecycle to close the client on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(qdrant.DefaultConfig()),
//	    qdrant.FXModule,
//	    // other modules...
//	)
//
// Dependencies required by this module:
// - A *qdrant.Config instance must be available in the dependency injection container
// - logger.Logger and observability.Observer are used when present
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewQdrantClient,
		NewStore,
		func(a *Adapter) vectordb.Store { return a },
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// StoreParams defines the dependencies of the fx-provided Adapter.
type StoreParams struct {
	fx.In

	Client   *QdrantClient
	Observer observability.Observer `optional:"true"`
	Logger   logger.Logger          `optional:"true"`
}

// NewStore builds the Adapter for the fx container.
func NewStore(p StoreParams) *Adapter {
	return NewAdapterFromClient(p.Client).
		WithObserver(p.Observer).
		WithLogger(p.Logger)
}

// RegisterQdrantLifecycle closes the client exactly once on shutdown.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *QdrantClient) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = client.Close()
			})
			return err
		},
	})
}
