// Package metrics exposes analysis runs as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run results used as the "result" label
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// RunsTotal counts analysis runs by result
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pom_graph_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"result"},
	)

	// RunDuration tracks how long successful runs take
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pom_graph_run_duration_seconds",
			Help:    "Duration of successful analysis runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	// Artifacts is the number of artifacts in the latest graph
	Artifacts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pom_graph_artifacts",
		Help: "Artifacts in the latest dependency graph",
	})

	// Edges is the number of edges in the latest graph
	Edges = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pom_graph_edges",
		Help: "Edges in the latest dependency graph",
	})

	// Unexpanded is the number of artifacts whose POM was never read
	Unexpanded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pom_graph_unexpanded_artifacts",
		Help: "Artifacts in the latest graph whose POM was not in the repository",
	})

	// Cycles is the number of dependency cycles in the latest graph
	Cycles = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pom_graph_cycles",
		Help: "Dependency cycles in the latest graph",
	})

	// Issues counts skipped problems of the latest run by kind
	Issues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pom_graph_issues",
			Help: "Recoverable problems met during the latest run",
		},
		[]string{"kind"},
	)

	// DocumentCache counts document reads by cache outcome
	DocumentCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pom_graph_document_cache_total",
			Help: "POM document reads served from the cache (hit) or parsed (miss)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(Artifacts)
	prometheus.MustRegister(Edges)
	prometheus.MustRegister(Unexpanded)
	prometheus.MustRegister(Cycles)
	prometheus.MustRegister(Issues)
	prometheus.MustRegister(DocumentCache)
}
