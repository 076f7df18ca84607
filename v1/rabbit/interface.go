package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client publishes messages to the configured RabbitMQ exchange.
//
// This interface is implemented by the concrete *RabbitClient type.
type Client interface {
	// Publish sends a message with optional headers and waits for the broker's confirmation.
	Publish(ctx context.Context, msg []byte, headers ...map[string]interface{}) error

	// RetryConnection monitors the connection and automatically reconnects on failure.
	// This method should be run in a goroutine.
	RetryConnection()

	// GracefulShutdown closes all RabbitMQ connections and channels cleanly.
	GracefulShutdown()

	// GetChannel returns the underlying AMQP channel for direct operations when needed.
	GetChannel() *amqp.Channel
}

// compile-time check
var _ Client = (*RabbitClient)(nil)
