package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal counts total HTTP requests
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletcore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request latency
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletcore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// httpRequestsInFlight tracks concurrent requests
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "walletcore",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Business metrics
var (
	// TransfersTotal counts transfers by kind, asset and outcome
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletcore",
			Subsystem: "business",
			Name:      "transfers_total",
			Help:      "Total number of transfer operations",
		},
		[]string{"kind", "asset", "outcome"},
	)

	// TransferAmount tracks transfer amounts in the asset's smallest unit
	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletcore",
			Subsystem: "business",
			Name:      "transfer_amount",
			Help:      "Transfer amounts in smallest asset units",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 9),
		},
		[]string{"kind", "asset"},
	)

	// IdempotentReplaysTotal counts requests answered from the idempotency cache
	IdempotentReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletcore",
			Subsystem: "business",
			Name:      "idempotent_replays_total",
			Help:      "Requests answered from the idempotency cache",
		},
		[]string{"kind"},
	)
)

// Store metrics
var (
	// StoreConnections tracks connection pool state
	StoreConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "walletcore",
			Subsystem: "store",
			Name:      "connections",
			Help:      "Number of store connections",
		},
		[]string{"state"}, // idle, in_use, max
	)

	// StoreErrorsTotal counts store errors by taxonomy code
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletcore",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of store errors",
		},
		[]string{"code"},
	)
)

// Metrics returns Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransfer records a transfer metric
func RecordTransfer(kind, asset, outcome string, amount int64) {
	TransfersTotal.WithLabelValues(kind, asset, outcome).Inc()
	if outcome == "success" {
		TransferAmount.WithLabelValues(kind, asset).Observe(float64(amount))
	}
}

// RecordIdempotentReplay records a cache-served response
func RecordIdempotentReplay(kind string) {
	IdempotentReplaysTotal.WithLabelValues(kind).Inc()
}

// RecordStoreError records a store error by taxonomy code
func RecordStoreError(code string) {
	StoreErrorsTotal.WithLabelValues(code).Inc()
}

// UpdateStoreConnections updates connection pool metrics
func UpdateStoreConnections(idle, inUse, max int32) {
	StoreConnections.WithLabelValues("idle").Set(float64(idle))
	StoreConnections.WithLabelValues("in_use").Set(float64(inUse))
	StoreConnections.WithLabelValues("max").Set(float64(max))
}
