package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/vecschema/v1/kafka"
	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/metrics"
	"github.com/Aleph-Alpha/vecschema/v1/migration"
	"github.com/Aleph-Alpha/vecschema/v1/minio"
	"github.com/Aleph-Alpha/vecschema/v1/qdrant"
	"github.com/Aleph-Alpha/vecschema/v1/rabbit"
	"github.com/Aleph-Alpha/vecschema/v1/redis"
	"github.com/Aleph-Alpha/vecschema/v1/tracer"
)

// Backends selectable in the configuration.
const (
	StoreQdrant = "qdrant"
	StoreMemory = "memory"

	LockLocal = "local"
	LockRedis = "redis"

	ArchiveNone  = ""
	ArchiveMinio = "minio"

	EventsNone   = ""
	EventsRabbit = "rabbit"
	EventsKafka  = "kafka"
)

// Config is the vecmigrate configuration file.
//
//	store:
//	  backend: qdrant
//	qdrant:
//	  endpoint: ${QDRANT_HOST:-localhost}
//	  port: 6334
//	lock:
//	  backend: redis
//	redis:
//	  host: ${REDIS_HOST}
//	events:
//	  backend: kafka
//	kafka:
//	  brokers: [${KAFKA_BROKER:-localhost:9092}]
//	migration:
//	  dir: ./migrations
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Tracer    tracer.Config    `yaml:"tracer"`
	Metrics   metrics.Config   `yaml:"metrics"`
	Store     StoreConfig      `yaml:"store"`
	Qdrant    qdrant.Config    `yaml:"qdrant"`
	Lock      LockConfig       `yaml:"lock"`
	Redis     redis.Config     `yaml:"redis"`
	Archive   ArchiveConfig    `yaml:"archive"`
	Minio     minio.Config     `yaml:"minio"`
	Events    EventsConfig     `yaml:"events"`
	Rabbit    rabbit.Config    `yaml:"rabbit"`
	Kafka     kafka.Config     `yaml:"kafka"`
	Migration migration.Config `yaml:"migration"`
}

// StoreConfig selects the vector store migrations run against.
type StoreConfig struct {
	// Backend is "qdrant" or "memory". The memory store starts empty on
	// every run and is meant for checking migration files.
	Backend string `yaml:"backend" env:"VECSCHEMA_STORE"`
}

// LockConfig selects the lock serializing migrations.
type LockConfig struct {
	// Backend is "local" or "redis"
	Backend string `yaml:"backend" env:"VECSCHEMA_LOCK"`
}

// ArchiveConfig selects where validated contracts are archived.
type ArchiveConfig struct {
	// Backend is empty or "minio". When empty, migration.contract_dir is used if set.
	Backend string `yaml:"backend" env:"VECSCHEMA_ARCHIVE"`
}

// EventsConfig selects where migration events are published.
type EventsConfig struct {
	// Backend is empty, "rabbit" or "kafka". Empty publishes nothing.
	Backend string `yaml:"backend" env:"VECSCHEMA_EVENTS"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	cfg := Config{
		Logger:    logger.DefaultConfig(),
		Tracer:    tracer.DefaultConfig(),
		Metrics:   metrics.DefaultConfig(),
		Store:     StoreConfig{Backend: StoreQdrant},
		Qdrant:    *qdrant.DefaultConfig(),
		Lock:      LockConfig{Backend: LockLocal},
		Redis:     redis.DefaultConfig(),
		Minio:     minio.DefaultConfig(),
		Rabbit:    rabbit.DefaultConfig(),
		Kafka:     kafka.DefaultConfig(),
		Migration: migration.DefaultConfig(),
	}
	cfg.Logger.ServiceName = "vecmigrate"
	cfg.Tracer.ServiceName = "vecmigrate"
	cfg.Metrics.ServiceName = "vecmigrate"
	// a one-shot command does not serve /metrics unless asked to
	cfg.Metrics.Address = ""
	cfg.Metrics.EnableDefaultCollectors = false
	return cfg
}

// LoadConfig reads the YAML file at path over the defaults, substitutes
// ${VAR} and ${VAR:-default} references and then applies VECSCHEMA_*
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks backend names and the settings they need.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreQdrant:
		if c.Qdrant.Endpoint == "" {
			errs = append(errs, errors.New("qdrant.endpoint is required"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("redis.host is required for the redis lock"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown lock backend %q", c.Lock.Backend))
	}

	switch c.Archive.Backend {
	case ArchiveNone:
	case ArchiveMinio:
		if c.Minio.Connection.Endpoint == "" || c.Minio.Connection.BucketName == "" {
			errs = append(errs, errors.New("minio.connection endpoint and bucket_name are required for the minio archive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive backend %q", c.Archive.Backend))
	}

	switch c.Events.Backend {
	case EventsNone:
	case EventsRabbit:
		if c.Rabbit.Connection.Host == "" || c.Rabbit.Channel.ExchangeName == "" {
			errs = append(errs, errors.New("rabbit.connection.host and rabbit.channel.exchange_name are required for rabbit events"))
		}
	case EventsKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.brokers and kafka.topic are required for kafka events"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events backend %q", c.Events.Backend))
	}

	if strings.TrimSpace(c.Migration.Dir) == "" {
		errs = append(errs, errors.New("migration.dir is required"))
	}
	return errors.Join(errs...)
}

var envVarRegex = regexp.MustCompile(`\$\{[^}]+\}`)

// expandEnvVars replaces ${VAR} with the variable's value and
// ${VAR:-default} with the default when VAR is empty.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
