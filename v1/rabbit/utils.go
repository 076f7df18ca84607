package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publish sends a message to the configured exchange and routing key and
// waits until the broker confirms it. Headers are optional; they carry the
// event type and the trace context of migration events.
//
// Example:
//
//	err := client.Publish(ctx, body, map[string]interface{}{"event-type": "migration_applied"})
func (rb *RabbitClient) Publish(ctx context.Context, msg []byte, headers ...map[string]interface{}) (err error) {
	start := time.Now()
	defer func() {
		rb.observeOperation("produce", rb.cfg.Channel.ExchangeName, rb.cfg.Channel.RoutingKey, time.Since(start), err, int64(len(msg)))
	}()

	select {
	case <-rb.shutdownSignal:
		return ErrShutdown
	default:
	}

	var header amqp.Table
	if len(headers) > 0 && headers[0] != nil {
		header = amqp.Table(headers[0])
	}

	rb.mu.RLock()
	ch := rb.Channel
	rb.mu.RUnlock()
	if ch == nil {
		return ErrChannelClosed
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		rb.cfg.Channel.ExchangeName,
		rb.cfg.Channel.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:      header,
			ContentType:  rb.cfg.Channel.ContentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         msg,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", rb.cfg.Channel.ExchangeName, TranslateError(err))
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm publish to %s: %w", rb.cfg.Channel.ExchangeName, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrMessageNacked, rb.cfg.Channel.ExchangeName)
	}
	return nil
}

// GracefulShutdown stops the reconnect loop and closes the channel and connection.
func (rb *RabbitClient) GracefulShutdown() {
	rb.closeShutdownOnce.Do(func() {
		close(rb.shutdownSignal)
	})

	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.logger.Info("Shutting down RabbitMQ client", nil)
	if rb.Channel != nil && !rb.Channel.IsClosed() {
		if err := rb.Channel.Close(); err != nil {
			rb.logger.Warn("Failed to close rabbit channel", err)
		}
	}
	if rb.conn != nil && !rb.conn.IsClosed() {
		if err := rb.conn.Close(); err != nil {
			rb.logger.Warn("Failed to close rabbit connection", err)
		}
	}
}

// GetChannel returns the current AMQP channel.
func (rb *RabbitClient) GetChannel() *amqp.Channel {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.Channel
}
