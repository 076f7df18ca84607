package migration

import (
	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/observability"
	"github.com/Aleph-Alpha/vecschema/v1/tracer"
)

// Option configures a Manager.
type Option func(*Manager)

// WithHistoryCollection overrides DefaultHistoryCollection.
func WithHistoryCollection(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.collection = name
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer creates spans with t instead of the global OpenTelemetry tracer.
func WithTracer(t *tracer.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

func WithObserver(o observability.Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithLocker replaces the in-process lock, e.g. with a Redis lock shared by several processes.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		if l != nil {
			m.locker = l
		}
	}
}

// WithValidator replaces the live contract validator.
func WithValidator(v ContractValidator) Option {
	return func(m *Manager) {
		m.validator = v
	}
}

// WithArchive saves the Pact documents of validated contracts. It applies to
// the default validator only.
func WithArchive(a ContractArchive) Option {
	return func(m *Manager) {
		m.archive = a
	}
}

// WithProbeDimension sets the scratch collection dimension of the default validator.
func WithProbeDimension(dimension int) Option {
	return func(m *Manager) {
		m.probeDimension = dimension
	}
}

// WithPublisher announces applied and rolled back migrations through p.
func WithPublisher(p EventPublisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}
