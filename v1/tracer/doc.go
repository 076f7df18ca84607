// Package tracer provides distributed tracing on top of OpenTelemetry.
//
// NewClient installs a global TracerProvider, so code that only calls
// otel.Tracer(...) (such as the migration manager without an injected Tracer)
// is traced as well.
//
// Basic usage:
//
//	tr, err := tracer.NewClient(tracer.Config{ServiceName: "vecmigrate"}, log)
//	if err != nil {
//		return err
//	}
//	defer tr.Shutdown(ctx)
//
//	ctx, span := tr.StartSpan(ctx, "migration.apply")
//	defer span.End()
//	tr.SetAttributes(span, map[string]interface{}{"migration.version": "1.1.0"})
//
// Propagation across process boundaries uses GetCarrier and
// SetCarrierOnContext with W3C trace-context headers.
package tracer
