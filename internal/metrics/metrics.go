package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReceiptsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_receipts_issued_total",
		Help: "Receipts issued, by receipt type",
	}, []string{"type"})

	ReceiptsVoided = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_receipts_voided_total",
		Help: "Receipts voided",
	})

	IdempotentReplays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_idempotent_replays_total",
		Help: "Requests answered with an already issued receipt, by operation",
	}, []string{"operation"})

	StockRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_rejections_total",
		Help: "Stock decrements rejected for insufficient quantity, by item kind",
	}, []string{"kind"})

	SessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sessions_closed_total",
		Help: "Cash register sessions closed, by mode (manual or auto)",
	}, []string{"mode"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_jobs_processed_total",
		Help: "Background jobs processed, by type and outcome",
	}, []string{"type", "outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests, by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
