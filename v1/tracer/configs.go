package tracer

// Config controls the OpenTelemetry tracer provider.
type Config struct {
	// ServiceName is recorded as the service.name resource attribute
	ServiceName string `yaml:"service_name" env:"VECSCHEMA_SERVICE_NAME"`

	// AppEnv is recorded as deployment.environment
	AppEnv string `yaml:"app_env" env:"VECSCHEMA_APP_ENV"`

	// EnableExport sends spans to an OTLP/HTTP collector configured through
	// the standard OTEL_EXPORTER_OTLP_* variables
	EnableExport bool `yaml:"enable_export" env:"VECSCHEMA_TRACE_EXPORT"`
}

// DefaultConfig returns a non-exporting tracer configuration.
func DefaultConfig() Config {
	return Config{ServiceName: "vecschema", AppEnv: "development"}
}
