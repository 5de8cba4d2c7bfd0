package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-web3/credential-gateway/internal/metrics"
)

func TestMetrics_Outcomes(t *testing.T) {
	m := metrics.New()

	m.IncrementOutcome("issued", http.StatusOK)
	m.IncrementOutcome("issued", http.StatusOK)
	m.IncrementOutcome("introspection", http.StatusUnauthorized)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Outcomes.WithLabelValues("issued", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Outcomes.WithLabelValues("introspection", "401")), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	m.IncrementOutcome("issued", http.StatusOK)
	m.ObserveStageLatency("parse", time.Millisecond)
	m.IncrementCacheLookup("hit")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	first := metrics.New()
	second := metrics.New()
	first.IncrementCacheLookup("hit")

	assert.InDelta(t, 0, testutil.ToFloat64(second.CacheLookups.WithLabelValues("hit")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveStageLatency("issuance", 20*time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "credential_gateway_stage_duration_seconds")
}
