package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Variant search Prometheus metrics.
var (
	ScanBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "scan_batches_total",
			Help:      "Search and scroll round trips issued against the variant indices",
		},
	)

	HitsScannedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "hits_scanned_total",
			Help:      "Raw hits handed to hydration",
		},
	)

	HitsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "hits_skipped_total",
			Help:      "Hits dropped because no queried individual carries the variant",
		},
	)

	HydrationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "hydration_errors_total",
			Help:      "Hits that could not be hydrated",
		},
	)

	EnrichmentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "enrichment_failures_total",
			Help:      "Enrichment steps that degraded, by step",
		},
		[]string{"step"},
	)

	LiftoverTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "liftover_total",
			Help:      "Coordinate conversions by target build and result",
		},
		[]string{"target", "result"}, // "mapped" / "unmapped" / "unavailable"
	)

	ResultLimitReachedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "result_limit_reached_total",
			Help:      "Searches truncated at the result ceiling, by query shape",
		},
		[]string{"shape"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "varsearch",
			Name:      "search_duration_seconds",
			Help:      "Time from query compilation to the end of the result sequence",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"shape"},
	)

	ReferenceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "varsearch",
			Name:      "reference_cache_total",
			Help:      "Gene summary cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// Register registers the metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ScanBatchesTotal,
			HitsScannedTotal,
			HitsSkippedTotal,
			HydrationErrorsTotal,
			EnrichmentFailuresTotal,
			LiftoverTotal,
			ResultLimitReachedTotal,
			SearchDuration,
			ReferenceCacheTotal,
		)
	})
}
