package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config controls the zap logger built by NewLoggerClient.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else means info.
	Level string `yaml:"level" env:"VECSCHEMA_LOG_LEVEL"`

	// ServiceName is attached to every entry as the "service" field
	ServiceName string `yaml:"service_name" env:"VECSCHEMA_SERVICE_NAME"`

	// EnableTracing adds trace_id and span_id to entries logged through the
	// *WithContext methods
	EnableTracing bool `yaml:"enable_tracing" env:"VECSCHEMA_LOG_TRACING"`

	// Development switches to the console encoder
	Development bool `yaml:"development" env:"VECSCHEMA_LOG_DEVELOPMENT"`
}

// DefaultConfig returns an info-level JSON logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:       Info,
		ServiceName: "vecschema",
	}
}
