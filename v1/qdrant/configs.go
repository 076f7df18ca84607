package qdrant

import (
	"time"
)

// DefaultPort is the gRPC port Qdrant listens on.
const DefaultPort = 6334

// Config holds connection and behavior settings for the Qdrant client.
//
// It can be loaded from YAML, overridden from VECSCHEMA_QDRANT_* environment
// variables, or built programmatically via helper methods.
//
// Example (programmatic):
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Endpoint = "qdrant.internal"
//	cfg.ApiKey = os.Getenv("QDRANT_API_KEY")
//
// Example (builder style):
//
//	cfg := qdrant.FromEndpoint("qdrant.internal").
//	    WithApiKey(os.Getenv("QDRANT_API_KEY")).
//	    WithTimeout(10 * time.Second)
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"VECSCHEMA_QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"VECSCHEMA_QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" env:"VECSCHEMA_QDRANT_API_KEY"`

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool `yaml:"use_tls" env:"VECSCHEMA_QDRANT_USE_TLS"`

	// Timeout bounds the startup health check.
	Timeout time.Duration `yaml:"timeout" env:"VECSCHEMA_QDRANT_TIMEOUT"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" env:"VECSCHEMA_QDRANT_CHECK_COMPATIBILITY"`

	// ShardNumber is applied to collections created by the adapter. Zero keeps the server default.
	ShardNumber uint32 `yaml:"shard_number" env:"VECSCHEMA_QDRANT_SHARD_NUMBER"`

	// ReplicationFactor is applied to collections created by the adapter. Zero keeps the server default.
	ReplicationFactor uint32 `yaml:"replication_factor" env:"VECSCHEMA_QDRANT_REPLICATION_FACTOR"`
}

// DefaultConfig provides sensible defaults for a local Qdrant.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Port:               DefaultPort,
		Timeout:            5 * time.Second,
		CheckCompatibility: true,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(host string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = host
	return cfg
}

// Builder-style helpers
func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

func (c *Config) WithTLS(enabled bool) *Config {
	c.UseTLS = enabled
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithCompatibilityCheck(enabled bool) *Config {
	c.CheckCompatibility = enabled
	return c
}

// WithSharding sets the shard number and replication factor for new collections.
func (c *Config) WithSharding(shards, replicas uint32) *Config {
	c.ShardNumber = shards
	c.ReplicationFactor = replicas
	return c
}
