// ABOUTME: Prometheus collectors for parse and edit activity in the editor.
// ABOUTME: Registered on the default registry and exposed at GET /metrics.

package editor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeflow_parses_total",
		Help: "Total number of session parses, labelled by outcome kind.",
	}, []string{"outcome"})

	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeflow_operations_total",
		Help: "Total number of patch operations, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})

	parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeflow_parse_duration_ms",
		Help:    "Time to parse a session document in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipeflow_sessions_active",
		Help: "Number of editor sessions currently held in memory.",
	})

	sessionsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeflow_sessions_evicted_total",
		Help: "Sessions dropped by the store, labelled by reason (capacity or idle).",
	}, []string{"reason"})
)
