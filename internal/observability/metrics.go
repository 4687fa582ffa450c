package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_impact"

// Metrics holds the Prometheus counters, histograms, and gauges for a reconcile run.
type Metrics struct {
	RecordsRead       prometheus.Counter
	RecordsResolved   *prometheus.CounterVec // labels: outcome
	ReconcileFailures *prometheus.CounterVec // labels: kind={no_match,ambiguous,other}
	SinkWrites        *prometheus.CounterVec // labels: sink
	SinkErrors        *prometheus.CounterVec // labels: sink
	RunActive         prometheus.Gauge
	RunDuration       prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Total impact records read from the input table.",
		}),
		RecordsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_resolved_total",
			Help:      "Impact records settled by the reconciler, by deciding outcome.",
		}, []string{"outcome"}),
		ReconcileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Reconcile runs halted by an unresolvable record, by failure kind.",
		}, []string{"kind"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Resolved impacts written, by sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed sink write attempts, by sink.",
		}, []string{"sink"}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_active",
			Help:      "1 while a reconcile run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-reconcile-write run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsRead,
		m.RecordsResolved,
		m.ReconcileFailures,
		m.SinkWrites,
		m.SinkErrors,
		m.RunActive,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
