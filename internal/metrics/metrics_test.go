package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { RegisterMetrics(reg) })
	assert.Panics(t, func() { RegisterMetrics(reg) })
}

func TestRecordAuth(t *testing.T) {
	before := testutil.ToFloat64(AuthOperations.WithLabelValues("login", "success"))
	RecordAuth("login", "success", 10*time.Millisecond)
	after := testutil.ToFloat64(AuthOperations.WithLabelValues("login", "success"))

	assert.Equal(t, before+1, after)
}

func TestRecordRateLimit(t *testing.T) {
	allowed := testutil.ToFloat64(RateLimitDecisions.WithLabelValues(DecisionAllowed))
	rejected := testutil.ToFloat64(RateLimitDecisions.WithLabelValues(DecisionRejected))

	RecordRateLimit(true)
	RecordRateLimit(false)
	RecordRateLimit(false)

	assert.Equal(t, allowed+1, testutil.ToFloat64(RateLimitDecisions.WithLabelValues(DecisionAllowed)))
	assert.Equal(t, rejected+2, testutil.ToFloat64(RateLimitDecisions.WithLabelValues(DecisionRejected)))
}
