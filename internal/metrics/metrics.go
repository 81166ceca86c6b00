package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"method", "endpoint"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Business metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"}, // success, failure
	)

	investorsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investors_created_total",
			Help: "Total number of investor records created",
		},
	)

	investorsDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investors_deleted_total",
			Help: "Total number of investor records deleted",
		},
	)

	stageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_transitions_total",
			Help: "Total number of pipeline stage moves",
		},
		[]string{"direction"}, // advance, retreat
	)

	dealsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_deals_closed_total",
			Help: "Total number of investors that reached the final stage",
		},
	)

	commentsAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investor_comments_added_total",
			Help: "Total number of comments added to investor records",
		},
	)

	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of insight generation requests",
		},
		[]string{"operation", "status"}, // success, failure
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Insight generation request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	feedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_subscribers",
			Help: "Number of connected live-feed subscribers",
		},
	)

	feedDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_dropped_updates_total",
			Help: "Total number of feed updates dropped on slow subscribers",
		},
	)
)

// PrometheusMiddleware creates a middleware that records Prometheus metrics
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		// Wrap response writer to capture status code and size
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Record request size
		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
		}

		// Handle request
		next.ServeHTTP(wrapped, r)

		// Record metrics
		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, statusCode).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(wrapped.size))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Unwrap lets http.ResponseController reach the underlying writer, which the
// live-feed streaming handler needs for flushing.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RecordAuthAttempt records an authentication attempt
func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordInvestorCreated records a new investor record
func RecordInvestorCreated() {
	investorsCreatedTotal.Inc()
}

// RecordInvestorDeleted records an investor record deletion
func RecordInvestorDeleted() {
	investorsDeletedTotal.Inc()
}

// RecordStageTransition records a pipeline stage move
func RecordStageTransition(direction string) {
	stageTransitionsTotal.WithLabelValues(direction).Inc()
}

// RecordDealClosed records an investor reaching the final pipeline stage
func RecordDealClosed() {
	dealsClosedTotal.Inc()
}

// RecordCommentAdded records a comment added to an investor record
func RecordCommentAdded() {
	commentsAddedTotal.Inc()
}

// RecordAIRequest records an insight generation request
func RecordAIRequest(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	aiRequestsTotal.WithLabelValues(operation, status).Inc()
	aiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// FeedSubscriberAdded increments the live-feed subscriber gauge
func FeedSubscriberAdded() {
	feedSubscribers.Inc()
}

// FeedSubscriberRemoved decrements the live-feed subscriber gauge
func FeedSubscriberRemoved() {
	feedSubscribers.Dec()
}

// RecordFeedDrop records an update dropped on a slow subscriber
func RecordFeedDrop() {
	feedDroppedTotal.Inc()
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}
