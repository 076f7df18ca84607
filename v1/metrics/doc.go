// Package metrics provides Prometheus-based metrics for the vector store
// adapters and the migration manager.
//
// # Architecture
//
//   - MetricsCollector interface: the contract, including observability.Observer
//   - Metrics struct: the implementation backed by a dedicated registry
//   - NewMetrics constructor: returns *Metrics
//   - FX module: provides *Metrics, MetricsCollector and observability.Observer
//
// Every observed operation updates:
//
//	<ns>_operations_total{component, operation, status}
//	<ns>_operation_duration_seconds{component, operation}
//	<ns>_operation_items_total{component, operation}
//
// # Direct Usage
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", Namespace: "vecschema"})
//	manager := migration.NewManager(store, migration.WithObserver(m))
//	go m.Server.ListenAndServe()
//
// Custom metrics can be added with CreateCounter, CreateHistogram and CreateGauge;
// they share the namespace and service label.
package metrics
