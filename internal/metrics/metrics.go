package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the credential pipeline.
type Metrics struct {
	registry *prometheus.Registry

	// Terminal outcomes by failing stage (or "issued") and HTTP status
	Outcomes *prometheus.CounterVec

	// Latency of each downstream call to the authorization service
	StageLatency *prometheus.HistogramVec

	// Introspection cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec
}

// New registers the credential gateway metrics on a dedicated registry
// together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_gateway_outcomes_total",
			Help: "Credential requests by terminal stage and HTTP status",
		}, []string{"stage", "status"}),

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credential_gateway_stage_duration_seconds",
			Help:    "Duration of authorization service calls by stage",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credential_gateway_introspection_cache_lookups_total",
			Help: "Introspection cache lookups by result",
		}, []string{"result"}),
	}
}

// IncrementOutcome records a terminal pipeline outcome.
func (m *Metrics) IncrementOutcome(stage string, status int) {
	if m != nil {
		m.Outcomes.WithLabelValues(stage, strconv.Itoa(status)).Inc()
	}
}

// ObserveStageLatency records the duration of one authorization service call.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
