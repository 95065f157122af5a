// Package metrics exposes Prometheus collectors for request handling and
// engine I/O. Collectors are registered on a private registry so tests and
// multiple servers in one process do not collide.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "wxstore"

// Metrics holds every collector exported by the server.
type Metrics struct {
	Registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	writes       prometheus.Counter
	writeBytes   prometheus.Counter
	writeLatency prometheus.Histogram
	readBytes    prometheus.Counter
	readLatency  prometheus.Histogram
	batchOps     prometheus.Counter

	streamsInFlight prometheus.Gauge
}

// New creates and registers the collectors. withRuntime adds the Go and
// process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total",
			Help: "Requests handled, by command and status.",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "command_duration_seconds",
			Help:    "Request handling latency by command.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		}, []string{"command"}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "writes_total",
			Help: "Single-key writes committed to the engine.",
		}),
		writeBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "write_bytes_total",
			Help: "Key and value bytes written.",
		}),
		writeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "engine", Name: "write_duration_seconds",
			Help:    "Durable write latency.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		}),
		readBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "read_bytes_total",
			Help: "Value bytes returned by point reads and scans.",
		}),
		readLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "engine", Name: "read_duration_seconds",
			Help:    "Point read and scan latency.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		}),
		batchOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "batch_ops_total",
			Help: "Operations committed through batches.",
		}),
		streamsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "exchanges_in_flight",
			Help: "Exchanges currently being handled.",
		}),
	}
	reg.MustRegister(m.commands, m.commandDuration, m.writes, m.writeBytes, m.writeLatency,
		m.readBytes, m.readLatency, m.batchOps, m.streamsInFlight)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// ObserveCommand records one handled request.
func (m *Metrics) ObserveCommand(command, status string, elapsed time.Duration) {
	m.commands.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ObserveWrite records a single-key engine write.
func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.writes.Inc()
	m.writeBytes.Add(float64(bytes))
	m.writeLatency.Observe(elapsed.Seconds())
}

// ObserveRead records a point read or a completed scan.
func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.readBytes.Add(float64(bytes))
	m.readLatency.Observe(elapsed.Seconds())
}

// ObserveBatchCommit records a batch commit.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, ops, bytes int) {
	m.batchOps.Add(float64(ops))
	m.writeBytes.Add(float64(bytes))
	m.writeLatency.Observe(elapsed.Seconds())
}

// ExchangeStarted and ExchangeFinished track in-flight exchanges.
func (m *Metrics) ExchangeStarted()  { m.streamsInFlight.Inc() }
func (m *Metrics) ExchangeFinished() { m.streamsInFlight.Dec() }
