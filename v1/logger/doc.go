// Package logger provides structured logging built on Uber's zap.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" pattern:
//   - Logger interface: the contract other packages depend on
//   - LoggerClient struct: the zap-backed implementation
//   - NewLoggerClient constructor: returns *LoggerClient
//   - FX module: provides both *LoggerClient and Logger
//
// # Direct Usage (Without FX)
//
//	log, err := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "vecmigrate",
//		EnableTracing: true,
//	})
//	if err != nil {
//		return err
//	}
//
//	log.Info("migration applied", nil, map[string]interface{}{
//		"version": "1.1.0",
//		"changes": 2,
//	})
//
//	// Adds trace_id and span_id when ctx carries a span
//	log.InfoWithContext(ctx, "contract gate passed", nil, nil)
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(logger.DefaultConfig()),
//		logger.FXModule,
//		fx.Invoke(func(log logger.Logger) {
//			log.Info("service started", nil, nil)
//		}),
//	)
//
// # Configuration
//
//	VECSCHEMA_LOG_LEVEL=debug        # debug, info, warning, error
//	VECSCHEMA_LOG_TRACING=true       # trace correlation fields
//	VECSCHEMA_LOG_DEVELOPMENT=true   # console encoder
//
// # Testing
//
// NewNop discards output. NewFromZap wraps zaptest or observer-backed loggers
// so tests can assert on entries. Packages that only need the interface are
// tested with the generated gomock MockLogger.
//
// All methods are safe for concurrent use.
package logger
