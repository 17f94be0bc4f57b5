// Package observability holds dbchat's Prometheus metrics and the HTTP
// middleware that records them.
package observability

import (
	"time"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbchat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	schemaFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_schema_fetches_total",
			Help: "Schema introspections by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_query_executions_total",
			Help: "Query executions by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbchat_query_duration_seconds",
			Help:    "Query execution latency by engine.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine"},
	)

	queryRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_query_rows_total",
			Help: "Data rows returned by engine.",
		},
		[]string{"engine"},
	)

	aiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_ai_requests_total",
			Help: "AI requests by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	aiRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbchat_ai_request_duration_seconds",
			Help:    "AI request latency by provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		schemaFetchesTotal,
		queryExecutionsTotal,
		queryDurationSeconds,
		queryRowsTotal,
		aiRequestsTotal,
		aiRequestDurationSeconds,
	)
}

// Outcome is "ok" for a nil error, else the error kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errs.KindOf(err).String()
}

func ObserveSchemaFetch(engine string, err error) {
	schemaFetchesTotal.WithLabelValues(engine, Outcome(err)).Inc()
}

func ObserveQuery(engine string, rows int, elapsed time.Duration, err error) {
	queryExecutionsTotal.WithLabelValues(engine, Outcome(err)).Inc()
	queryDurationSeconds.WithLabelValues(engine).Observe(elapsed.Seconds())
	if rows > 0 {
		queryRowsTotal.WithLabelValues(engine).Add(float64(rows))
	}
}

func ObserveAIRequest(provider string, elapsed time.Duration, err error) {
	aiRequestsTotal.WithLabelValues(provider, Outcome(err)).Inc()
	aiRequestDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}
