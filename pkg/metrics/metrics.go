package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GenerationLatency is model inference latency in milliseconds.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draft_generation_latency_ms",
			Help:    "Text generation latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12), // 100ms to ~200s
		},
		[]string{"model", "status"},
	)

	// DraftRequestCount counts /generate requests by outcome.
	DraftRequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_request_count",
			Help: "Total number of draft requests",
		},
		[]string{"outcome"}, // outcome: success, invalid, failed, cancelled
	)

	// GenerationInFlight is the number of generations currently holding a slot.
	GenerationInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "draft_generation_in_flight",
			Help: "Generations currently running",
		},
	)

	// DraftClientLatency is bot-side latency of draft service calls in milliseconds.
	DraftClientLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draft_client_latency_ms",
			Help:    "Draft service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		},
		[]string{"endpoint", "status"},
	)

	// MailDeliveryCount counts outbound mail by transport and status.
	MailDeliveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_delivery_count",
			Help: "Total number of outbound mail deliveries",
		},
		[]string{"transport", "status"}, // status: sent, failed
	)

	// CommandCount counts chat command invocations by outcome.
	CommandCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_command_count",
			Help: "Total number of chat command invocations",
		},
		[]string{"command", "outcome"},
	)

	// HTTPRequestDuration is HTTP server request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordGenerationLatency records one generation call.
func RecordGenerationLatency(model, status string, duration time.Duration) {
	GenerationLatency.WithLabelValues(model, status).Observe(float64(duration.Milliseconds()))
}

// IncrementDraftRequest counts one /generate outcome.
func IncrementDraftRequest(outcome string) {
	DraftRequestCount.WithLabelValues(outcome).Inc()
}

// RecordDraftClientLatency records one bot-side draft call.
func RecordDraftClientLatency(endpoint, status string, duration time.Duration) {
	DraftClientLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// IncrementMailDelivery counts one delivery attempt.
func IncrementMailDelivery(transport, status string) {
	MailDeliveryCount.WithLabelValues(transport, status).Inc()
}

// IncrementCommand counts one command invocation.
func IncrementCommand(command, outcome string) {
	CommandCount.WithLabelValues(command, outcome).Inc()
}

// RecordHTTPRequestDuration records one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// GinMiddleware records HTTPRequestDuration keyed by the matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Handler exposes the default registry for /metrics.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
