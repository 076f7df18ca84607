package kafka

import "context"

// Client is the producer side of Kafka used to emit migration events.
//
// This interface is implemented by the concrete *KafkaClient type.
type Client interface {
	Publish(ctx context.Context, key string, msg []byte, headers ...map[string]interface{}) error
	GracefulShutdown() error
}

// compile-time check
var _ Client = (*KafkaClient)(nil)
