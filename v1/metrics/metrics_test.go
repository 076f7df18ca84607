package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecschema/v1/observability"
)

func TestObserveOperationCountsByStatus(t *testing.T) {
	m := NewMetrics(Config{Namespace: "test", ServiceName: "svc"})

	m.ObserveOperation(observability.OperationContext{Component: "qdrant", Operation: "search", Duration: 5 * time.Millisecond, Size: 3})
	m.ObserveOperation(observability.OperationContext{Component: "qdrant", Operation: "search", Duration: time.Millisecond})
	m.ObserveOperation(observability.OperationContext{Component: "qdrant", Operation: "search", Error: errors.New("down")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("qdrant", "search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("qdrant", "search", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.operationSize.WithLabelValues("qdrant", "search")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
}

func TestRegistryCarriesServiceLabelAndNamespace(t *testing.T) {
	m := NewMetrics(Config{Namespace: "test", ServiceName: "svc"})
	m.ObserveOperation(observability.OperationContext{Component: "migration", Operation: "apply"})

	expected := `
# HELP test_operations_total Total number of store and migration operations
# TYPE test_operations_total counter
test_operations_total{component="migration",operation="apply",service="svc",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "test_operations_total"))
}

func TestCreateCustomMetrics(t *testing.T) {
	m := NewMetrics(Config{Namespace: "test"})
	c := m.CreateCounter("locks_total", "locks", []string{"key"})
	c.WithLabelValues("k").Inc()
	g := m.CreateGauge("history_size", "history", nil)
	g.WithLabelValues().Set(2)
	h := m.CreateHistogram("gate_seconds", "gates", []string{"gate"}, []float64{0.1, 1})
	h.WithLabelValues("contract").Observe(0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.WithLabelValues("k")))
	assert.Equal(t, 2.0, testutil.ToFloat64(g.WithLabelValues()))
	assert.Nil(t, m.Server)
}

func TestServerConfiguredWithAddress(t *testing.T) {
	m := NewMetrics(Config{Address: ":0"})
	require.NotNil(t, m.Server)
	assert.Equal(t, ":0", m.Server.Addr)
}
