// README: Prometheus collectors for dialogue turns, completions and upstream lookups.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns counts handled turns by outcome: collecting, complete or an error code.
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabi_chat_turns_total",
			Help: "Total number of chat turns handled",
		},
		[]string{"outcome"},
	)

	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabi_completions_total",
			Help: "Total number of completion requests by provider and result",
		},
		[]string{"provider", "result"},
	)

	SynthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabi_synthesis_duration_seconds",
			Help:    "Duration of plan synthesis in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"provider"},
	)

	// UpstreamFailures counts failed places and directions lookups by service:
	// text_search, nearby_search or directions.
	UpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabi_upstream_failures_total",
			Help: "Total number of failed maps lookups by service",
		},
		[]string{"service"},
	)

	// PlanItems records how many locations and restaurants a plan carried.
	PlanItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabi_plan_items",
			Help:    "Number of resolved items per synthesized plan",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
		[]string{"kind"},
	)
)
