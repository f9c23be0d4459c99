// Package metrics holds the Prometheus collectors for the auth service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rate limit decisions.
const (
	DecisionAllowed  = "allowed"
	DecisionRejected = "rejected"
)

// AuthOperations counts orchestrator calls by operation and outcome kind.
var AuthOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wordwave_auth_operations_total",
		Help: "Total number of auth operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// AuthDuration observes orchestrator latency; dominated by bcrypt.
var AuthDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "wordwave_auth_operation_duration_seconds",
		Help:    "Auth operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// RateLimitDecisions counts limiter outcomes.
var RateLimitDecisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wordwave_rate_limit_decisions_total",
		Help: "Total number of rate limit decisions",
	},
	[]string{"decision"},
)

// RegisterMetrics registers the collectors with reg. Panics on duplicate
// registration, following prometheus convention.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthOperations, AuthDuration, RateLimitDecisions)
}

// RecordAuth records one orchestrator call.
func RecordAuth(operation, outcome string, d time.Duration) {
	AuthOperations.WithLabelValues(operation, outcome).Inc()
	AuthDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRateLimit records one limiter decision.
func RecordRateLimit(allowed bool) {
	decision := DecisionAllowed
	if !allowed {
		decision = DecisionRejected
	}
	RateLimitDecisions.WithLabelValues(decision).Inc()
}
