// Package observability exposes benchmark measurements as Prometheus metrics.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "persistbench"

// Metrics holds the benchmark collectors on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	scenarioDuration *prometheus.GaugeVec
	recordsWritten   *prometheus.CounterVec
	chunksCompleted  *prometheus.CounterVec
}

// NewMetrics creates and registers the benchmark collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scenarioDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Wall-clock duration of the last run of each scenario.",
		}, []string{"scenario"}),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records persisted, by backend and execution mode.",
		}, []string{"backend", "mode"}),
		chunksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_completed_total",
			Help:      "Chunks written by the worker pool, by backend.",
		}, []string{"backend"}),
	}
	m.registry.MustRegister(m.scenarioDuration, m.recordsWritten, m.chunksCompleted)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScenario records the elapsed time of a scenario.
func (m *Metrics) ObserveScenario(scenario string, elapsed time.Duration) {
	m.scenarioDuration.WithLabelValues(scenario).Set(elapsed.Seconds())
}

// AddRecords counts records written by backend and mode.
func (m *Metrics) AddRecords(backend, mode string, n int) {
	if n > 0 {
		m.recordsWritten.WithLabelValues(backend, mode).Add(float64(n))
	}
}

// IncChunk counts one completed chunk.
func (m *Metrics) IncChunk(backend string) {
	m.chunksCompleted.WithLabelValues(backend).Inc()
}

// WriteTextfile writes the registry in text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("observability: write textfile: %w", err)
	}
	return nil
}
