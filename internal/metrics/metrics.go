package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics
var (
	EngineLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framepress_engine_loads_total",
			Help: "Total number of engine loads by outcome",
		},
		[]string{"outcome"},
	)

	EngineLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "framepress_engine_load_duration_seconds",
			Help:    "Engine load duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	EngineState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framepress_engine_state",
			Help: "Current engine lifecycle state (1 for the active state)",
		},
		[]string{"state"},
	)
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framepress_jobs_total",
			Help: "Total number of scoped engine jobs",
		},
		[]string{"operation", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framepress_job_duration_seconds",
			Help:    "Scoped engine job duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"operation"},
	)
)

// Ladder metrics
var (
	LadderTiersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "framepress_ladder_tiers_total",
			Help: "Total number of quality ladder tiers encoded",
		},
		[]string{"tier", "status"},
	)
)
