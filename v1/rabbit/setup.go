package rabbit

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

// RabbitClient publishes messages to RabbitMQ with publisher confirms and
// reconnects automatically when the broker drops the connection.
type RabbitClient struct {
	// cfg stores the configuration for this RabbitMQ client
	cfg Config

	// Channel is the AMQP channel used for publishing, in confirm mode.
	// It's exposed publicly to allow direct operations when needed.
	Channel *amqp.Channel

	// conn is the underlying AMQP connection to the RabbitMQ server
	conn *amqp.Connection

	logger   logger.Logger
	observer observability.Observer

	// mu protects concurrent access to connection and channel
	mu sync.RWMutex

	// shutdownSignal is closed when the client is being shut down
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once
}

// NewClient connects to RabbitMQ, opens a confirm-mode channel and declares
// the exchange when Channel.DeclareExchange is set.
//
// Example:
//
//	client, err := rabbit.NewClient(rabbit.DefaultConfig(), log)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
func NewClient(cfg Config, log logger.Logger) (*RabbitClient, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Channel.DelayToReconnect <= 0 {
		cfg.Channel.DelayToReconnect = DefaultDelayToReconnect
	}
	if cfg.Channel.ContentType == "" {
		cfg.Channel.ContentType = DefaultContentType
	}

	rb := &RabbitClient{
		cfg:            cfg,
		logger:         log,
		shutdownSignal: make(chan struct{}),
	}

	con, err := rb.newConnection()
	if err != nil {
		log.Error("error in connecting to rabbit", err)
		return nil, err
	}

	ch, err := connectToChannel(con, cfg)
	if err != nil {
		log.Error("error in declaring channel", err)
		_ = con.Close()
		return nil, err
	}

	rb.conn = con
	rb.Channel = ch
	return rb, nil
}

// WithObserver attaches an observer that is notified about every publish.
func (rb *RabbitClient) WithObserver(observer observability.Observer) *RabbitClient {
	rb.observer = observer
	return rb
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (rb *RabbitClient) WithLogger(l logger.Logger) *RabbitClient {
	if l != nil {
		rb.logger = l
	}
	return rb
}

// connectToChannel creates a channel in confirm mode and declares the exchange if asked to.
func connectToChannel(conn *amqp.Connection, cfg Config) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", TranslateError(err))
	}

	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", TranslateError(err))
	}

	if !cfg.Channel.DeclareExchange {
		return ch, nil
	}

	err = ch.ExchangeDeclare(
		cfg.Channel.ExchangeName,
		cfg.Channel.ExchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Channel.ExchangeName, TranslateError(err))
	}
	return ch, nil
}

// RetryConnection monitors the connection and re-establishes it, with its
// channel, whenever it closes. It returns once GracefulShutdown is called.
func (rb *RabbitClient) RetryConnection() {
outerLoop:
	for {
		rb.mu.RLock()
		conn := rb.conn
		rb.mu.RUnlock()

		errChan := make(chan *amqp.Error, 1)
		conn.NotifyClose(errChan)

		select {
		case <-rb.shutdownSignal:
			rb.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil)
			return

		case amqpErr := <-errChan:
			var cause error
			if amqpErr != nil {
				cause = amqpErr
			}
			rb.logger.Warn("RabbitMQ connection closed, retrying", cause)
			for {
				select {
				case <-rb.shutdownSignal:
					rb.logger.Info("Stopping RetryConnection loop due to shutdown signal", nil)
					return
				case <-time.After(rb.cfg.Channel.DelayToReconnect):
				}

				newConn, err := rb.newConnection()
				if err != nil {
					rb.logger.Error("RabbitMQ reconnection failed", err)
					continue
				}
				ch, err := connectToChannel(newConn, rb.cfg)
				if err != nil {
					rb.logger.Error("Failed to re-establish RabbitMQ channel", err)
					_ = newConn.Close()
					continue
				}

				rb.mu.Lock()
				rb.conn = newConn
				rb.Channel = ch
				rb.mu.Unlock()

				rb.logger.Info("Successfully reconnected to RabbitMQ", nil)
				continue outerLoop
			}
		}
	}
}

// newConnection dials the broker. It supports plain AMQP, AMQPS with server
// verification and AMQPS with client certificates. All connections use a
// 2-second heartbeat interval to detect disconnections quickly.
func (rb *RabbitClient) newConnection() (*amqp.Connection, error) {
	c := rb.cfg.Connection
	rb.logger.Info("Connecting to Rabbit", nil, map[string]interface{}{
		"host": c.Host,
		"port": c.Port,
		"ssl":  c.IsSSLEnabled,
	})

	amqpCfg := amqp.Config{Heartbeat: 2 * time.Second}
	if c.IsSSLEnabled {
		tlsCfg, err := tlsConfig(c)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsCfg
	}

	conn, err := amqp.DialConfig(connectionURL(c), amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, TranslateError(err))
	}
	rb.logger.Info("Connected to Rabbit", nil)
	return conn, nil
}

func connectionURL(c Connection) string {
	scheme := "amqp"
	if c.IsSSLEnabled {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10)),
	}
	if c.VHost != "" {
		u.Path = "/" + c.VHost
	}
	return u.String()
}

func tlsConfig(c Connection) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: c.ServerName}

	if c.CACertPath != "" {
		caCert, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert %s", c.CACertPath)
		}
		cfg.RootCAs = pool
	}

	if c.UseCert {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
