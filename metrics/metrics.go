package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, populated by the middleware in middleware/metrics.go.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectionquest_http_requests_total",
			Help: "Total number of HTTP requests processed, labeled by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connectionquest_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, labeled by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectionquest_http_requests_in_progress",
			Help: "Number of HTTP requests currently being served.",
		},
	)
)

// Quiz engine metrics.
var (
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectionquest_sessions_created_total",
			Help: "Total number of quiz sessions created.",
		},
	)

	SessionJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectionquest_session_joins_total",
			Help: "Total number of successful session joins, idempotent re-joins included.",
		},
	)

	AnswersSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectionquest_answers_submitted_total",
			Help: "Total number of answers persisted.",
		},
	)

	MatchesConcluded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectionquest_matches_concluded_total",
			Help: "Total number of sessions concluded with a final match percentage.",
		},
	)

	MatchPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "connectionquest_match_percentage",
			Help:    "Distribution of concluded match percentages.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	VouchersIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connectionquest_vouchers_issued_total",
			Help: "Total number of vouchers minted, labeled by reward name.",
		},
		[]string{"reward"},
	)

	VouchersExported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connectionquest_vouchers_exported_total",
			Help: "Total number of vouchers pushed to the CRM exporter.",
		},
	)
)
