package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
)

// FXModule provides *Tracer and flushes it on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(tracer.DefaultConfig()),
//	    logger.FXModule,
//	    tracer.FXModule,
//	)
//
// Dependencies required by this module:
// - A tracer.Config and a logger.Logger must be available in the container
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the provider down on application stop so
// batched spans reach the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
