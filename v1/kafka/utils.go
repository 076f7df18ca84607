package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the client uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publish writes msg with the given key to the configured topic. Messages
// with the same key land on the same partition, so events of one migration
// version stay ordered. Header values are stringified.
//
// Example:
//
//	err := client.Publish(ctx, "1.2.0", body, map[string]interface{}{"event-type": "migration_applied"})
func (k *KafkaClient) Publish(ctx context.Context, key string, msg []byte, headers ...map[string]interface{}) (err error) {
	start := time.Now()
	defer func() {
		k.observeOperation("produce", k.cfg.Topic, key, time.Since(start), err, int64(len(msg)))
	}()

	select {
	case <-k.shutdownSignal:
		return ErrShutdown
	default:
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: msg,
		Time:  time.Now().UTC(),
	}
	if len(headers) > 0 {
		message.Headers = toHeaders(headers[0])
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if err := k.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", k.cfg.Topic, err)
	}
	return nil
}

// GracefulShutdown flushes pending messages and closes the writer.
func (k *KafkaClient) GracefulShutdown() error {
	var err error
	k.closeShutdownOnce.Do(func() {
		close(k.shutdownSignal)

		k.mu.Lock()
		defer k.mu.Unlock()
		k.logger.Info("Shutting down Kafka producer", nil)
		if k.writer != nil {
			err = k.writer.Close()
		}
	})
	return err
}

func toHeaders(headers map[string]interface{}) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for key, value := range headers {
		var v []byte
		switch typed := value.(type) {
		case []byte:
			v = typed
		case string:
			v = []byte(typed)
		default:
			v = []byte(fmt.Sprint(typed))
		}
		out = append(out, kafka.Header{Key: key, Value: v})
	}
	return out
}
