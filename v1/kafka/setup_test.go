package kafka

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ctx)
}

func newFakeClient(w *fakeWriter, obs observability.Observer) *KafkaClient {
	return &KafkaClient{
		cfg:            DefaultConfig(),
		logger:         logger.NewNop(),
		observer:       obs,
		writer:         w,
		shutdownSignal: make(chan struct{}),
	}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{Topic: "t"}, nil)
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, err = NewClient(Config{Brokers: []string{"localhost:9092"}}, nil)
	assert.ErrorIs(t, err, ErrNoTopic)

	cfg := DefaultConfig()
	cfg.CompressionCodec = "brotli"
	_, err = NewClient(cfg, nil)
	assert.ErrorContains(t, err, "unsupported compression codec")

	cfg = DefaultConfig()
	cfg.SASL = SASLConfig{Enabled: true, Mechanism: "GSSAPI"}
	_, err = NewClient(cfg, nil)
	assert.ErrorContains(t, err, "failed to create SASL mechanism")

	cfg = DefaultConfig()
	cfg.TLS = TLSConfig{Enabled: true, CACertPath: "/does/not/exist.pem"}
	_, err = NewClient(cfg, nil)
	assert.ErrorContains(t, err, "failed to read CA cert")

	client, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "events"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts, client.cfg.MaxAttempts)
	assert.Equal(t, DefaultWriteTimeout, client.cfg.WriteTimeout)
	require.NoError(t, client.GracefulShutdown())
}

func TestCreateWriter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Async = true
	cfg.BatchSize = 7
	cfg.CompressionCodec = "zstd"

	w, err := createWriter(cfg, nil, nil, logger.NewNop())
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, DefaultTopic, w.Topic)
	assert.True(t, w.Async)
	assert.Equal(t, 7, w.BatchSize)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, compress.Zstd, w.Compression)
}

func TestCreateSASLMechanism(t *testing.T) {
	tests := []struct {
		mechanism string
		name      string
		wantErr   bool
	}{
		{mechanism: "PLAIN", name: "PLAIN"},
		{mechanism: "SCRAM-SHA-256", name: "SCRAM-SHA-256"},
		{mechanism: "SCRAM-SHA-512", name: "SCRAM-SHA-512"},
		{mechanism: "OAUTHBEARER", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.mechanism, func(t *testing.T) {
			m, err := createSASLMechanism(SASLConfig{Mechanism: tt.mechanism, Username: "u", Password: "p"})
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported SASL mechanism")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, m.Name())
		})
	}
}

func TestCreateTLSConfig(t *testing.T) {
	cfg, err := createTLSConfig(TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)

	_, err = createTLSConfig(TLSConfig{ClientCertPath: "/nope.crt", ClientKeyPath: "/nope.key"})
	assert.ErrorContains(t, err, "failed to load client cert")
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	obs := &recordingObserver{}
	client := newFakeClient(w, obs)

	err := client.Publish(context.Background(), "1.2.0", []byte(`{"type":"migration_applied"}`), map[string]interface{}{
		"event-type": "migration_applied",
		"attempt":    2,
		"raw":        []byte("x"),
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("1.2.0"), msg.Key)
	assert.JSONEq(t, `{"type":"migration_applied"}`, string(msg.Value))

	headers := map[string]string{}
	keys := make([]string, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
		keys = append(keys, h.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"attempt", "event-type", "raw"}, keys)
	assert.Equal(t, "migration_applied", headers["event-type"])
	assert.Equal(t, "2", headers["attempt"])
	assert.Equal(t, "x", headers["raw"])

	require.Len(t, obs.ops, 1)
	assert.Equal(t, "kafka", obs.ops[0].Component)
	assert.Equal(t, "produce", obs.ops[0].Operation)
	assert.Equal(t, DefaultTopic, obs.ops[0].Resource)
	assert.Equal(t, "1.2.0", obs.ops[0].SubResource)
	assert.NoError(t, obs.ops[0].Error)
}

func TestPublishWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	obs := &recordingObserver{}
	client := newFakeClient(&fakeWriter{err: boom}, obs)

	err := client.Publish(context.Background(), "1.0.0", []byte(`{}`))
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to write to topic "+DefaultTopic)
	require.Len(t, obs.ops, 1)
	assert.ErrorIs(t, obs.ops[0].Error, boom)
}

func TestPublishAfterShutdown(t *testing.T) {
	w := &fakeWriter{}
	client := newFakeClient(w, nil)

	require.NoError(t, client.GracefulShutdown())
	require.NoError(t, client.GracefulShutdown())
	assert.True(t, w.closed)

	err := client.Publish(context.Background(), "1.0.0", []byte(`{}`))
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Empty(t, w.messages)
}

func TestObserveOperationNilObserverNoPanic(t *testing.T) {
	client := newFakeClient(&fakeWriter{}, nil)
	client.observeOperation("produce", "topic", "key", time.Millisecond, nil, 0)
}
