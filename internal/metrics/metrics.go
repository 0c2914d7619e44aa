// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_queries_total",
			Help: "Queries reaching a terminal status, by platform and status",
		},
		[]string{"platform", "status"},
	)

	QueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_query_failures_total",
			Help: "Failed queries by platform and error code",
		},
		[]string{"platform", "error_code"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "answer_engine_query_duration_seconds",
			Help:    "Wall time of a single query dispatch",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"platform"},
	)

	QueryCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_query_cost_total",
			Help: "Accumulated computed query cost",
		},
		[]string{"platform"},
	)

	QueriesInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "answer_engine_queries_in_flight",
			Help: "Adapter calls currently outstanding",
		},
		[]string{"platform"},
	)

	RateLimitDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_rate_limit_denials_total",
			Help: "Requests denied by the per-platform budget",
		},
		[]string{"platform"},
	)

	MentionsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_brand_mentions_total",
			Help: "Brand mentions detected, by sentiment",
		},
		[]string{"sentiment"},
	)

	CitationsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_engine_citations_total",
			Help: "Citations extracted, by citation type",
		},
		[]string{"citation_type"},
	)
)
