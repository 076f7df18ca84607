package metrics

// DefaultMetricsAddress is the listen address of DefaultConfig.
const DefaultMetricsAddress = ":9090"

// Config defines the Prometheus metrics server settings.
type Config struct {
	// Address is where the /metrics HTTP server listens, e.g. ":9090".
	// An empty address disables the server while keeping the registry usable.
	Address string `yaml:"address" env:"VECSCHEMA_METRICS_ADDRESS"`

	// EnableDefaultCollectors registers Go runtime, process and build-info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" env:"VECSCHEMA_METRICS_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name, e.g. "vecschema" gives
	// "vecschema_operations_total".
	Namespace string `yaml:"namespace" env:"VECSCHEMA_METRICS_NAMESPACE"`

	// ServiceName is attached as a constant "service" label.
	ServiceName string `yaml:"service_name" env:"VECSCHEMA_SERVICE_NAME"`
}

// DefaultConfig returns a config serving on DefaultMetricsAddress.
func DefaultConfig() Config {
	return Config{
		Address:                 DefaultMetricsAddress,
		EnableDefaultCollectors: true,
		Namespace:               "vecschema",
		ServiceName:             "vecschema",
	}
}
