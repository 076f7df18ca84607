package kafka

import "errors"

var (
	// ErrNoBrokers is returned when the configuration lists no broker
	ErrNoBrokers = errors.New("no kafka brokers configured")

	// ErrNoTopic is returned when the configuration names no topic
	ErrNoTopic = errors.New("no kafka topic configured")

	// ErrShutdown is returned when publishing on a closed client
	ErrShutdown = errors.New("kafka client is shut down")
)
