package rabbit

import "time"

// Config defines the top-level configuration structure for the RabbitMQ client.
// It contains the settings for establishing connections and the exchange
// migration events are published to.
type Config struct {
	// Connection contains the settings needed to establish a connection to the RabbitMQ server
	Connection Connection `yaml:"connection"`

	// Channel contains configuration for the exchange and message routing
	Channel Channel `yaml:"channel"`
}

// Connection contains the configuration parameters needed to establish
// a connection to a RabbitMQ server, including authentication and TLS settings.
type Connection struct {
	// Host is the RabbitMQ server hostname or IP address
	Host string `yaml:"host" env:"VECSCHEMA_RABBIT_HOST"`

	// Port is the RabbitMQ server port (typically 5672 for non-SSL, 5671 for SSL)
	Port uint `yaml:"port" env:"VECSCHEMA_RABBIT_PORT"`

	// User is the RabbitMQ username for authentication
	User string `yaml:"user" env:"VECSCHEMA_RABBIT_USER"`

	// Password is the RabbitMQ password for authentication
	Password string `yaml:"password" env:"VECSCHEMA_RABBIT_PASSWORD"`

	// VHost is the virtual host to connect to. Empty means "/".
	VHost string `yaml:"vhost" env:"VECSCHEMA_RABBIT_VHOST"`

	// IsSSLEnabled determines whether to use SSL/TLS for the connection
	// When true, connections will use the AMQPs protocol
	IsSSLEnabled bool `yaml:"ssl_enabled" env:"VECSCHEMA_RABBIT_SSL_ENABLED"`

	// UseCert determines whether to use client certificate authentication
	// When true, client certificates will be sent for mutual TLS authentication
	UseCert bool `yaml:"use_cert" env:"VECSCHEMA_RABBIT_USE_CERT"`

	// CACertPath is the file path to the CA certificate for verifying the server
	CACertPath string `yaml:"ca_cert_path" env:"VECSCHEMA_RABBIT_CA_CERT"`

	// ClientCertPath is the file path to the client certificate
	ClientCertPath string `yaml:"client_cert_path" env:"VECSCHEMA_RABBIT_CLIENT_CERT"`

	// ClientKeyPath is the file path to the client certificate's private key
	ClientKeyPath string `yaml:"client_key_path" env:"VECSCHEMA_RABBIT_CLIENT_KEY"`

	// ServerName is the server name to use for TLS verification
	ServerName string `yaml:"server_name" env:"VECSCHEMA_RABBIT_SERVER_NAME"`
}

// Channel contains configuration for the exchange messages are published to.
type Channel struct {
	// ExchangeName is the name of the exchange to publish to
	ExchangeName string `yaml:"exchange_name" env:"VECSCHEMA_RABBIT_EXCHANGE"`

	// ExchangeType defines the routing behavior of the exchange
	// Common values: "direct", "fanout", "topic", "headers"
	ExchangeType string `yaml:"exchange_type" env:"VECSCHEMA_RABBIT_EXCHANGE_TYPE"`

	// RoutingKey is used for routing messages from the exchange to queues
	RoutingKey string `yaml:"routing_key" env:"VECSCHEMA_RABBIT_ROUTING_KEY"`

	// DeclareExchange declares the exchange as durable when connecting.
	// Leave it false when the exchange is managed elsewhere.
	DeclareExchange bool `yaml:"declare_exchange" env:"VECSCHEMA_RABBIT_DECLARE_EXCHANGE"`

	// ContentType specifies the MIME type of published messages
	ContentType string `yaml:"content_type" env:"VECSCHEMA_RABBIT_CONTENT_TYPE"`

	// DelayToReconnect is the pause between reconnection attempts
	DelayToReconnect time.Duration `yaml:"delay_to_reconnect" env:"VECSCHEMA_RABBIT_RECONNECT_DELAY"`
}

// Default values for configuration
const (
	DefaultPort             = 5672
	DefaultExchangeName     = "vecschema.migrations"
	DefaultExchangeType     = "topic"
	DefaultRoutingKey       = "schema.migration"
	DefaultContentType      = "application/json"
	DefaultDelayToReconnect = time.Second
)

// DefaultConfig returns a publisher configuration for a local broker.
func DefaultConfig() Config {
	return Config{
		Connection: Connection{
			Host:     "localhost",
			Port:     DefaultPort,
			User:     "guest",
			Password: "guest",
		},
		Channel: Channel{
			ExchangeName:     DefaultExchangeName,
			ExchangeType:     DefaultExchangeType,
			RoutingKey:       DefaultRoutingKey,
			DeclareExchange:  true,
			ContentType:      DefaultContentType,
			DelayToReconnect: DefaultDelayToReconnect,
		},
	}
}
