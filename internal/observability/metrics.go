package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "verifications_total",
		Help:      "Total number of completed verification requests by verdict",
	}, []string{"participation"})

	CheckerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "checker_failures_total",
		Help:      "Collaborator failures absorbed as a false signal",
	}, []string{"check"})

	CheckerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "presence",
		Name:      "checker_duration_seconds",
		Help:      "Duration of the name-match and face-match checks",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"check"})

	RecordWriteRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "record_write_retries_total",
		Help:      "Transient participation-record write failures that were retried",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "presence",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "presence",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
