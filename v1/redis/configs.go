package redis

import "time"

// Config defines the connection settings of the Redis client and the
// defaults of the distributed migration lock.
type Config struct {
	// Host is the Redis server hostname or IP address
	// Default: "localhost"
	Host string `yaml:"host" env:"VECSCHEMA_REDIS_HOST"`

	// Port is the Redis server port
	// Default: 6379
	Port int `yaml:"port" env:"VECSCHEMA_REDIS_PORT"`

	// Username is the Redis username for ACL authentication (Redis 6.0+)
	Username string `yaml:"username" env:"VECSCHEMA_REDIS_USERNAME"`

	// Password is the Redis password for authentication
	Password string `yaml:"password" env:"VECSCHEMA_REDIS_PASSWORD"`

	// DB is the Redis database number to use
	// Default: 0
	DB int `yaml:"db" env:"VECSCHEMA_REDIS_DB"`

	// PoolSize is the maximum number of socket connections
	// Default: 10 per CPU
	PoolSize int `yaml:"pool_size" env:"VECSCHEMA_REDIS_POOL_SIZE"`

	// MaxRetries is the maximum number of retries before giving up
	// Default: 3
	// Set to -1 to disable retries
	MaxRetries int `yaml:"max_retries" env:"VECSCHEMA_REDIS_MAX_RETRIES"`

	// DialTimeout is the timeout for establishing new connections
	// Default: 5 seconds
	DialTimeout time.Duration `yaml:"dial_timeout" env:"VECSCHEMA_REDIS_DIAL_TIMEOUT"`

	// ReadTimeout is the timeout for socket reads
	// Default: 3 seconds
	ReadTimeout time.Duration `yaml:"read_timeout" env:"VECSCHEMA_REDIS_READ_TIMEOUT"`

	// WriteTimeout is the timeout for socket writes
	// Default: ReadTimeout
	WriteTimeout time.Duration `yaml:"write_timeout" env:"VECSCHEMA_REDIS_WRITE_TIMEOUT"`

	// TLS contains TLS/SSL configuration
	TLS TLSConfig `yaml:"tls"`

	// LockKey is the key guarding schema migrations
	// Default: "vecschema:migration-lock"
	LockKey string `yaml:"lock_key" env:"VECSCHEMA_REDIS_LOCK_KEY"`

	// LockTTL is how long a lock survives without being refreshed
	// Default: 30 seconds
	LockTTL time.Duration `yaml:"lock_ttl" env:"VECSCHEMA_REDIS_LOCK_TTL"`

	// LockRetryInterval is the pause between acquisition attempts
	// Default: 200 milliseconds
	LockRetryInterval time.Duration `yaml:"lock_retry_interval" env:"VECSCHEMA_REDIS_LOCK_RETRY_INTERVAL"`
}

// TLSConfig contains TLS/SSL configuration parameters.
type TLSConfig struct {
	// Enabled determines whether to use TLS/SSL for the connection
	Enabled bool `yaml:"enabled" env:"VECSCHEMA_REDIS_TLS_ENABLED"`

	// CACertPath is the file path to the CA certificate for verifying the server
	CACertPath string `yaml:"ca_cert_path" env:"VECSCHEMA_REDIS_TLS_CA_CERT"`

	// ClientCertPath is the file path to the client certificate
	ClientCertPath string `yaml:"client_cert_path" env:"VECSCHEMA_REDIS_TLS_CLIENT_CERT"`

	// ClientKeyPath is the file path to the client certificate's private key
	ClientKeyPath string `yaml:"client_key_path" env:"VECSCHEMA_REDIS_TLS_CLIENT_KEY"`

	// InsecureSkipVerify controls whether to skip verification of the server's certificate
	// WARNING: Setting this to true is insecure and should only be used in testing
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" env:"VECSCHEMA_REDIS_TLS_INSECURE"`

	// ServerName is used to verify the hostname on the returned certificates
	// If empty, the Host from the main config is used
	ServerName string `yaml:"server_name" env:"VECSCHEMA_REDIS_TLS_SERVER_NAME"`
}

// Default values for configuration
const (
	DefaultHost              = "localhost"
	DefaultPort              = 6379
	DefaultMaxRetries        = 3
	DefaultDialTimeout       = 5 * time.Second
	DefaultReadTimeout       = 3 * time.Second
	DefaultLockKey           = "vecschema:migration-lock"
	DefaultLockTTL           = 30 * time.Second
	DefaultLockRetryInterval = 200 * time.Millisecond
)

// DefaultConfig returns a config for a local Redis without authentication.
func DefaultConfig() Config {
	return Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		MaxRetries:        DefaultMaxRetries,
		DialTimeout:       DefaultDialTimeout,
		ReadTimeout:       DefaultReadTimeout,
		LockKey:           DefaultLockKey,
		LockTTL:           DefaultLockTTL,
		LockRetryInterval: DefaultLockRetryInterval,
	}
}

// applyDefaults fills zero values with the package defaults.
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.LockKey == "" {
		c.LockKey = DefaultLockKey
	}
	if c.LockTTL == 0 {
		c.LockTTL = DefaultLockTTL
	}
	if c.LockRetryInterval == 0 {
		c.LockRetryInterval = DefaultLockRetryInterval
	}
}
