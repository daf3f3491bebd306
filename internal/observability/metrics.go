package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_live_subscriptions",
			Help: "Currently open live-query subscriptions per collection",
		},
		[]string{"collection"},
	)

	snapshotsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_snapshots_delivered_total",
			Help: "Full snapshots delivered to live-query subscribers",
		},
		[]string{"collection"},
	)

	documentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_document_writes_total",
			Help: "Document write operations against the gateway",
		},
		[]string{"operation", "collection", "status"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"path", "method", "status"},
	)

	httpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests answered with a domain error",
		},
		[]string{"path", "method", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

// SubscriptionOpened records a new live subscription.
func SubscriptionOpened(collection string) {
	liveSubscriptions.WithLabelValues(collection).Inc()
}

// SubscriptionClosed records subscription teardown.
func SubscriptionClosed(collection string) {
	liveSubscriptions.WithLabelValues(collection).Dec()
}

// SnapshotDelivered counts one delivered snapshot.
func SnapshotDelivered(collection string) {
	snapshotsDelivered.WithLabelValues(collection).Inc()
}

// WriteObserved counts one write operation outcome.
func WriteObserved(operation, collection string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	documentWrites.WithLabelValues(operation, collection, status).Inc()
}

// RecordRequest counts a served HTTP request.
func RecordRequest(path, method string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts a domain-error response.
func RecordError(path, method, code string) {
	httpErrors.WithLabelValues(path, method, code).Inc()
}
