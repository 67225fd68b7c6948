package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 上游请求
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_mirror_upstream_requests_total",
			Help: "Total number of upstream catalog requests by endpoint and HTTP status (0 = transport error)",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igdb_mirror_upstream_request_seconds",
			Help:    "Duration of upstream catalog requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "igdb_mirror_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		},
		[]string{"name"},
	)

	// 同步
	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_mirror_sync_records_total",
			Help: "Records processed by reconciliation",
		},
		[]string{"kind", "outcome"}, // created, updated, unchanged, failed
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_mirror_sync_runs_total",
			Help: "Completed sync runs by kind and final status",
		},
		[]string{"kind", "status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "igdb_mirror_sync_run_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	MalformedReferences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_mirror_malformed_references_total",
			Help: "Parent records skipped because a reference field could not be parsed",
		},
		[]string{"kind"},
	)

	// 凭证
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "igdb_mirror_token_refresh_total",
			Help: "Access token refresh attempts by result",
		},
		[]string{"result"}, // success, rejected, missing_credentials, error
	)
)

// RecordUpstreamRequest 记录一次上游请求
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordReconcile 记录一次对账结果
func RecordReconcile(kind string, created, updated, unchanged, failed int) {
	SyncRecords.WithLabelValues(kind, "created").Add(float64(created))
	SyncRecords.WithLabelValues(kind, "updated").Add(float64(updated))
	SyncRecords.WithLabelValues(kind, "unchanged").Add(float64(unchanged))
	SyncRecords.WithLabelValues(kind, "failed").Add(float64(failed))
}

// RecordSyncRun 记录一次同步结束
func RecordSyncRun(kind, status string, duration time.Duration) {
	SyncRuns.WithLabelValues(kind, status).Inc()
	SyncRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
