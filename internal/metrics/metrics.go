// Package metrics declares harp's Prometheus instrumentation surface:
// counters and histograms for ingestion dispatch, pipeline execution,
// and cache activity.
//
// Grounded on Unity-Technologies-tools-gcp-internal's mon/meter.go
// (prometheus.CounterVec/GaugeVec/HistogramVec factory helpers keyed
// by namespace/subsystem/name, registered in init) and
// grafana-tempo's direct use of prometheus/client_golang throughout
// its modules.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "harp"

var defaultDurationBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
}

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help},
		labels,
	)
}

func newGaugeVec(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help},
		labels,
	)
}

func newHistogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets},
		labels,
	)
}

var (
	// IngestDispatchTotal counts Registry.Dispatch outcomes, labeled by
	// the matching module's name and "ok"/"error".
	IngestDispatchTotal = newCounterVec("ingest", "dispatch_total",
		"Ingestion dispatch attempts by module and outcome", "module", "outcome")

	// IngestDispatchSeconds observes Registry.Dispatch wall time.
	IngestDispatchSeconds = newHistogramVec("ingest", "dispatch_seconds",
		"Seconds spent dispatching one source file", defaultDurationBuckets, "module")

	// PipelineOperationSeconds observes one bound operation's Apply time.
	PipelineOperationSeconds = newHistogramVec("pipeline", "operation_seconds",
		"Seconds spent applying one bound operation", defaultDurationBuckets, "operation")

	// PipelineRunTotal counts Pipeline.Run outcomes.
	PipelineRunTotal = newCounterVec("pipeline", "run_total",
		"Pipeline runs by outcome", "outcome")

	// CacheRequestsTotal counts cache.Cache.Get calls by hit/miss/error.
	CacheRequestsTotal = newCounterVec("cache", "requests_total",
		"Cache lookups by result", "cache", "result")

	// CacheEntries reports the current number of resident cache entries.
	CacheEntries = newGaugeVec("cache", "entries",
		"Number of entries currently resident in a cache", "cache")
)

func init() {
	prometheus.MustRegister(
		IngestDispatchTotal,
		IngestDispatchSeconds,
		PipelineOperationSeconds,
		PipelineRunTotal,
		CacheRequestsTotal,
		CacheEntries,
	)
}
