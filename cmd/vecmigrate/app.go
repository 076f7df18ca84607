package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecschema/v1/kafka"
	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/metrics"
	"github.com/Aleph-Alpha/vecschema/v1/migration"
	"github.com/Aleph-Alpha/vecschema/v1/minio"
	"github.com/Aleph-Alpha/vecschema/v1/qdrant"
	"github.com/Aleph-Alpha/vecschema/v1/rabbit"
	"github.com/Aleph-Alpha/vecschema/v1/redis"
	"github.com/Aleph-Alpha/vecschema/v1/tracer"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb/memstore"
)

// appOptions composes the fx modules selected by cfg.
func appOptions(cfg Config) []fx.Option {
	qdrantCfg := cfg.Qdrant

	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(cfg.Logger, cfg.Tracer, cfg.Metrics, cfg.Migration),
		logger.FXModule,
		tracer.FXModule,
		metrics.FXModule,
		migration.FXModule,
	}

	switch cfg.Store.Backend {
	case StoreMemory:
		opts = append(opts, fx.Provide(func() vectordb.Store { return memstore.New() }))
	default:
		opts = append(opts, fx.Supply(&qdrantCfg), qdrant.FXModule)
	}

	if cfg.Lock.Backend == LockRedis {
		opts = append(opts,
			fx.Supply(cfg.Redis),
			redis.FXModule,
			fx.Provide(func(l *redis.Locker) migration.Locker { return l }),
		)
	}

	if cfg.Archive.Backend == ArchiveMinio {
		opts = append(opts,
			fx.Supply(cfg.Minio),
			minio.FXModule,
			fx.Provide(func(c *minio.MinioClient) migration.ContractArchive {
				return migration.NewObjectArchive(c)
			}),
		)
	}

	switch cfg.Events.Backend {
	case EventsRabbit:
		opts = append(opts,
			fx.Supply(cfg.Rabbit),
			rabbit.FXModule,
			fx.Provide(func(c rabbit.Client) migration.EventPublisher {
				return migration.NewJSONPublisher(func(ctx context.Context, _ string, body []byte, headers map[string]interface{}) error {
					return c.Publish(ctx, body, headers)
				})
			}),
		)
	case EventsKafka:
		opts = append(opts,
			fx.Supply(cfg.Kafka),
			kafka.FXModule,
			fx.Provide(func(c kafka.Client) migration.EventPublisher {
				return migration.NewJSONPublisher(func(ctx context.Context, key string, body []byte, headers map[string]interface{}) error {
					return c.Publish(ctx, key, body, headers)
				})
			}),
		)
	}
	return opts
}

// runtime is what a command needs from the started application.
type runtime struct {
	Manager *migration.Manager
	Logger  logger.Logger
}

// withRuntime starts the application, hands the manager to fn and stops the
// application again, also when fn fails.
func withRuntime(ctx context.Context, cfg Config, extra []fx.Option, fn func(context.Context, runtime) error) (err error) {
	var rt runtime
	opts := append(appOptions(cfg), extra...)
	opts = append(opts, fx.Populate(&rt.Manager, &rt.Logger))

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("failed to stop: %w", stopErr)
		}
	}()

	return fn(ctx, rt)
}
