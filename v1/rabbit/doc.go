// Package rabbit publishes schema migration events to RabbitMQ.
//
// The client opens one channel in confirm mode, so Publish returns only after
// the broker has taken responsibility for the message. A background loop
// (RetryConnection) re-dials the broker when the connection drops.
//
// # Direct Usage (Without FX)
//
//	client, err := rabbit.NewClient(rabbit.DefaultConfig(), log)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//	go client.RetryConnection()
//
//	err = client.Publish(ctx, body, map[string]interface{}{"event-type": "migration_applied"})
//
// # Migration Events
//
// The migration manager publishes through a migration.JSONPublisher:
//
//	publisher := migration.NewJSONPublisher(func(ctx context.Context, _ string, body []byte, headers map[string]interface{}) error {
//		return client.Publish(ctx, body, headers)
//	})
//	manager := migration.NewManager(store, migration.WithPublisher(publisher))
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(rabbit.DefaultConfig()),
//		logger.FXModule,
//		rabbit.FXModule,
//	)
//
// # Error Handling
//
// TranslateError maps AMQP errors to the package sentinels while keeping the
// original error in the chain; IsRetryableError tells transient failures from
// permanent ones.
package rabbit
