package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// FXModule is an fx.Module that provides the Kafka producer.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(kafka.DefaultConfig()),
//	    kafka.FXModule,
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
		func(k *KafkaClient) Client { return k },
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create a Kafka client
type KafkaParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a Kafka client using dependency injection.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	client, err := NewClient(params.Config, params.Logger)
	if err != nil {
		return nil, err
	}
	return client.WithObserver(params.Observer), nil
}

// RegisterKafkaLifecycle flushes and closes the producer when the application stops.
func RegisterKafkaLifecycle(lc fx.Lifecycle, client *KafkaClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.GracefulShutdown()
		},
	})
}
