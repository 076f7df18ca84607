package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, StoreQdrant, cfg.Store.Backend)
	assert.Equal(t, LockLocal, cfg.Lock.Backend)
	assert.Equal(t, ArchiveNone, cfg.Archive.Backend)
	assert.Equal(t, EventsNone, cfg.Events.Backend)
	assert.Equal(t, "vecschema.migrations", cfg.Kafka.Topic)
	assert.Equal(t, "vecschema.migrations", cfg.Rabbit.Channel.ExchangeName)
	assert.Equal(t, "localhost", cfg.Qdrant.Endpoint)
	assert.Equal(t, "_vecschema_migrations", cfg.Migration.HistoryCollection)
	assert.Equal(t, "migrations", cfg.Migration.Dir)
	assert.True(t, cfg.Migration.ValidateContracts)
	assert.Empty(t, cfg.Metrics.Address)
	assert.Equal(t, "vecmigrate", cfg.Logger.ServiceName)
}

func TestLoadConfig_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_QDRANT_HOST", "qdrant.internal")
	t.Setenv("TEST_REDIS_HOST", "")

	path := writeFile(t, t.TempDir(), "vecmigrate.yaml", `
store:
  backend: qdrant
qdrant:
  endpoint: ${TEST_QDRANT_HOST}
  port: 6335
  timeout: 10s
lock:
  backend: redis
redis:
  host: ${TEST_REDIS_HOST:-redis.internal}
  lock_ttl: 1m
migration:
  dir: ./schema
  history_collection: _history
  validate_contracts: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Endpoint)
	assert.Equal(t, 6335, cfg.Qdrant.Port)
	assert.Equal(t, 10*time.Second, cfg.Qdrant.Timeout)
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, time.Minute, cfg.Redis.LockTTL)
	// keys missing from the file keep their defaults
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "./schema", cfg.Migration.Dir)
	assert.Equal(t, "_history", cfg.Migration.HistoryCollection)
	assert.False(t, cfg.Migration.ValidateContracts)
	assert.True(t, cfg.Migration.InitializeOnStart)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vecmigrate.yaml", "store:\n  backend: qdrant\nqdrant:\n  endpoint: from-file\n")

	t.Setenv("VECSCHEMA_STORE", "memory")
	t.Setenv("VECSCHEMA_QDRANT_ENDPOINT", "from-env")
	t.Setenv("VECSCHEMA_QDRANT_SHARD_NUMBER", "3")
	t.Setenv("VECSCHEMA_REDIS_LOCK_TTL", "45s")
	t.Setenv("VECSCHEMA_MIGRATION_VALIDATE_CONTRACTS", "false")
	t.Setenv("VECSCHEMA_MINIO_MIN_PART_SIZE", "5242880")
	t.Setenv("VECSCHEMA_REDIS_TLS_ENABLED", "true")
	t.Setenv("VECSCHEMA_EVENTS", "kafka")
	t.Setenv("VECSCHEMA_KAFKA_BROKERS", "kafka-0:9092, kafka-1:9092,")
	t.Setenv("VECSCHEMA_KAFKA_BATCH_TIMEOUT", "250ms")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "from-env", cfg.Qdrant.Endpoint)
	assert.Equal(t, uint32(3), cfg.Qdrant.ShardNumber)
	assert.Equal(t, 45*time.Second, cfg.Redis.LockTTL)
	assert.False(t, cfg.Migration.ValidateContracts)
	assert.Equal(t, uint64(5242880), cfg.Minio.UploadConfig.MinPartSize)
	assert.True(t, cfg.Redis.TLS.Enabled)
	assert.Equal(t, EventsKafka, cfg.Events.Backend)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.BatchTimeout)
}

func TestLoadConfig_RabbitEvents(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vecmigrate.yaml", `
events:
  backend: rabbit
rabbit:
  connection:
    host: mq.internal
    vhost: schemas
  channel:
    exchange_name: platform.schema
    declare_exchange: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, EventsRabbit, cfg.Events.Backend)
	assert.Equal(t, "mq.internal", cfg.Rabbit.Connection.Host)
	assert.Equal(t, uint(5672), cfg.Rabbit.Connection.Port)
	assert.Equal(t, "schemas", cfg.Rabbit.Connection.VHost)
	assert.Equal(t, "platform.schema", cfg.Rabbit.Channel.ExchangeName)
	assert.True(t, cfg.Rabbit.Channel.DeclareExchange)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = LoadConfig(writeFile(t, dir, "bad.yaml", "store: [\n"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = LoadConfig(writeFile(t, dir, "backends.yaml", "store:\n  backend: pinecone\nlock:\n  backend: etcd\narchive:\n  backend: s3\nevents:\n  backend: nats\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown store backend "pinecone"`)
	assert.ErrorContains(t, err, `unknown lock backend "etcd"`)
	assert.ErrorContains(t, err, `unknown archive backend "s3"`)
	assert.ErrorContains(t, err, `unknown events backend "nats"`)

	_, err = LoadConfig(writeFile(t, dir, "kafka.yaml", "events:\n  backend: kafka\nkafka:\n  brokers: []\n"))
	assert.ErrorContains(t, err, "kafka.brokers and kafka.topic are required")

	t.Setenv("VECSCHEMA_QDRANT_PORT", "not-a-port")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "VECSCHEMA_QDRANT_PORT")
}

func TestApplyEnv_RejectsNonStruct(t *testing.T) {
	var s string
	assert.Error(t, applyEnv(&s))
	assert.Error(t, applyEnv(Config{}))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_SET", "value")
	t.Setenv("TEST_EMPTY", "")

	got := expandEnvVars([]byte("a: ${TEST_SET}\nb: ${TEST_EMPTY:-fallback}\nc: ${TEST_SET:-unused}\nd: ${TEST_UNSET_VARIABLE}\n"))
	assert.Equal(t, "a: value\nb: fallback\nc: value\nd: \n", string(got))
}
