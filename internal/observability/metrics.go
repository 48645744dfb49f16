package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and collection.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "askaway_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// RegistrationsTotal counts created accounts by origin (password or google).
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_registrations_total",
		Help: "Total number of registered accounts",
	}, []string{"origin"})

	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_logins_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	// ContentCreatedTotal counts created questions, answers and stars.
	ContentCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_content_created_total",
		Help: "Total number of created content items by kind",
	}, []string{"kind"})

	// AICallsTotal counts generator calls by operation and outcome.
	AICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_ai_calls_total",
		Help: "Total number of AI generator calls",
	}, []string{"operation", "outcome"})

	// AICallLatency records generator latency by operation.
	AICallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "askaway_ai_call_latency_seconds",
		Help:    "AI generator call latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})

	// IntegrationSendsTotal counts outbound Slack and AWS calls.
	IntegrationSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_integration_sends_total",
		Help: "Total number of outbound integration calls",
	}, []string{"integration", "outcome"})

	// WebSocketConnectionsTotal is the gauge of live feed connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "askaway_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// RecordAICall records a generator call.
func RecordAICall(operation string, err error, start time.Time) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AICallsTotal.WithLabelValues(operation, outcome).Inc()
	AICallLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
