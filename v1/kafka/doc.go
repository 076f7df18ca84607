// Package kafka publishes schema migration events to a Kafka topic.
//
// It wraps a segmentio/kafka-go writer with TLS, SASL (PLAIN, SCRAM-SHA-256,
// SCRAM-SHA-512) and compression support. Messages are keyed by migration
// version and hashed to partitions, so all events of one version are ordered.
//
// # Direct Usage (Without FX)
//
//	client, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		Topic:   "vecschema.migrations",
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//
//	err = client.Publish(ctx, "1.2.0", body, map[string]interface{}{"event-type": "migration_applied"})
//
// # Migration Events
//
//	publisher := migration.NewJSONPublisher(func(ctx context.Context, key string, body []byte, headers map[string]interface{}) error {
//		return client.Publish(ctx, key, body, headers)
//	})
//	manager := migration.NewManager(store, migration.WithPublisher(publisher))
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(kafka.DefaultConfig()),
//		logger.FXModule,
//		kafka.FXModule,
//	)
package kafka
