package rabbit

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// TestRabbitPublishThroughFXModule publishes a confirmed message and reads it
// back from a queue bound to the exchange.
func TestRabbitPublishThroughFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	host, port, containerInstance := initializeRabbit(ctx, t)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	cfg := DefaultConfig()
	cfg.Connection.Host = host
	cfg.Connection.Port = port

	var client Client
	obs := &TestObserver{}
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(func() logger.Logger { return logger.NewNop() }),
		fx.Provide(func() observability.Observer { return obs }),
		FXModule,
		fx.Populate(&client),
	)
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	// a separate connection owns the test queue
	conn, err := amqp.Dial(connectionURL(cfg.Connection))
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, cfg.Channel.RoutingKey, cfg.Channel.ExchangeName, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	body := []byte(`{"type":"migration_applied","version":"1.0.0"}`)
	err = client.Publish(ctx, body, map[string]interface{}{
		"event-type":        "migration_applied",
		"migration-version": "1.0.0",
	})
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.Equal(t, body, d.Body)
		assert.Equal(t, DefaultContentType, d.ContentType)
		assert.Equal(t, "migration_applied", d.Headers["event-type"])
		assert.Equal(t, "1.0.0", d.Headers["migration-version"])
	case <-time.After(10 * time.Second):
		t.Fatal("message was not delivered")
	}

	ops := obs.GetOperations()
	require.NotEmpty(t, ops)
	assert.Equal(t, "produce", ops[len(ops)-1].Operation)
	assert.NoError(t, ops[len(ops)-1].Error)
}

func TestRabbitUnknownExchange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	host, port, containerInstance := initializeRabbit(ctx, t)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	cfg := DefaultConfig()
	cfg.Connection.Host = host
	cfg.Connection.Port = port
	cfg.Channel.ExchangeName = "missing.exchange"
	cfg.Channel.DeclareExchange = false

	client, err := NewClient(cfg, logger.NewNop())
	require.NoError(t, err)
	defer client.GracefulShutdown()

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = client.Publish(publishCtx, []byte(`{}`))
	require.Error(t, err)
}

func initializeRabbit(ctx context.Context, t *testing.T) (string, uint, testcontainers.Container) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:4-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5672/tcp").WithStartupTimeout(90*time.Second),
			wait.ForExec([]string{"rabbitmq-diagnostics", "status"}).WithStartupTimeout(90*time.Second),
		),
	}

	containerInstance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := containerInstance.Host(ctx)
	require.NoError(t, err)
	port, err := containerInstance.MappedPort(ctx, "5672")
	require.NoError(t, err)

	return host, uint(port.Int()), containerInstance
}
