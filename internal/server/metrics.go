package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// prospectsScored tracks prospects that received a result, by outcome.
	prospectsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_prospects_scored_total",
			Help: "Total number of prospects that received a scoring result",
		},
		[]string{"outcome"},
	)

	// chunkErrors tracks terminal chunk failures by taxonomy category.
	chunkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_chunk_errors_total",
			Help: "Total number of chunks that fell back, by error category",
		},
		[]string{"category"},
	)

	// retriesIssued tracks model call retries across all runs.
	retriesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scorer_retries_total",
			Help: "Total number of model call retries issued",
		},
	)

	// runLatency tracks wall-clock scoring run latency.
	runLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scorer_run_latency_seconds",
			Help:    "Scoring run latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
