package kafka

import "time"

const (
	// DefaultTopic is the topic migration events are written to
	DefaultTopic = "vecschema.migrations"

	// DefaultRequiredAcks waits for all in-sync replicas
	DefaultRequiredAcks = -1

	// DefaultBatchSize is the number of messages buffered in async mode
	DefaultBatchSize = 100

	// DefaultBatchTimeout flushes an incomplete batch in async mode
	DefaultBatchTimeout = time.Second

	// DefaultMaxAttempts is how often a write is tried before giving up
	DefaultMaxAttempts = 3

	// DefaultWriteTimeout bounds a single write
	DefaultWriteTimeout = 10 * time.Second
)

// Config defines the settings of the Kafka producer used for migration events.
type Config struct {
	// Brokers is the list of bootstrap brokers, host:port
	Brokers []string `yaml:"brokers" env:"VECSCHEMA_KAFKA_BROKERS"`

	// Topic is the topic every message is written to
	Topic string `yaml:"topic" env:"VECSCHEMA_KAFKA_TOPIC"`

	// RequiredAcks is the number of acknowledgements the leader needs:
	// -1 for all in-sync replicas, 1 for the leader only, 0 for none
	RequiredAcks int `yaml:"required_acks" env:"VECSCHEMA_KAFKA_REQUIRED_ACKS"`

	// Async makes Publish return before the broker acknowledged the write
	Async bool `yaml:"async" env:"VECSCHEMA_KAFKA_ASYNC"`

	BatchSize    int           `yaml:"batch_size" env:"VECSCHEMA_KAFKA_BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"VECSCHEMA_KAFKA_BATCH_TIMEOUT"`
	MaxAttempts  int           `yaml:"max_attempts" env:"VECSCHEMA_KAFKA_MAX_ATTEMPTS"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"VECSCHEMA_KAFKA_WRITE_TIMEOUT"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd. Empty disables compression.
	CompressionCodec string `yaml:"compression_codec" env:"VECSCHEMA_KAFKA_COMPRESSION"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig contains the TLS settings of the broker connection.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" env:"VECSCHEMA_KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" env:"VECSCHEMA_KAFKA_TLS_CA_CERT"`
	ClientCertPath     string `yaml:"client_cert_path" env:"VECSCHEMA_KAFKA_TLS_CLIENT_CERT"`
	ClientKeyPath      string `yaml:"client_key_path" env:"VECSCHEMA_KAFKA_TLS_CLIENT_KEY"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"VECSCHEMA_KAFKA_TLS_INSECURE"`
}

// SASLConfig contains the SASL authentication settings.
type SASLConfig struct {
	Enabled bool `yaml:"enabled" env:"VECSCHEMA_KAFKA_SASL_ENABLED"`

	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	Mechanism string `yaml:"mechanism" env:"VECSCHEMA_KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" env:"VECSCHEMA_KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" env:"VECSCHEMA_KAFKA_SASL_PASSWORD"`
}

// DefaultConfig returns a producer configuration for a local broker.
func DefaultConfig() Config {
	return Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        DefaultTopic,
		RequiredAcks: DefaultRequiredAcks,
		BatchSize:    DefaultBatchSize,
		BatchTimeout: DefaultBatchTimeout,
		MaxAttempts:  DefaultMaxAttempts,
		WriteTimeout: DefaultWriteTimeout,
	}
}
