package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a2a_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "a2a_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	transfersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "a2a_transfers_created_total",
			Help: "Total transfer requests accepted into the queue",
		},
	)

	transfersProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "a2a_transfers_processed_total",
			Help: "Total transfer requests reaching a terminal state",
		},
		[]string{"state"},
	)
)

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Use the route template, not the raw path, to keep cardinality low
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// CountTransferCreated increments the created-transfer counter
func CountTransferCreated() {
	transfersCreatedTotal.Inc()
}

// CountTransferProcessed increments the terminal-state counter
func CountTransferProcessed(state string) {
	transfersProcessedTotal.WithLabelValues(state).Inc()
}
