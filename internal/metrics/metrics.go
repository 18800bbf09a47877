// Package metrics owns the Prometheus collectors for the service. Collectors
// live on a private registry so tests can build as many instances as they need.
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

const namespace = "media_quota"

type Metrics struct {
	registry *prometheus.Registry

	rateLimitChecks    *prometheus.CounterVec
	rateLimitFallbacks prometheus.Counter
	breakerState       *prometheus.GaugeVec
	usageDeltas        *prometheus.CounterVec
	reconciliations    *prometheus.CounterVec
	reconcileDrift     *prometheus.HistogramVec
	quotaRejections    *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		rateLimitChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_checks_total",
				Help:      "Rate limit checks by zone and result",
			},
			[]string{"zone", "result"},
		),

		rateLimitFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_fallbacks_total",
				Help:      "Checks answered by the in-process limiter because the shared store failed",
			},
		),

		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),

		usageDeltas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_deltas_total",
				Help:      "Applied usage counter adjustments by field and direction",
			},
			[]string{"field", "direction"},
		),

		reconciliations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliations_total",
				Help:      "Usage reconciliations by outcome",
			},
			[]string{"outcome"},
		),

		reconcileDrift: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_drift",
				Help:      "Absolute drift corrected by a reconciliation, per field",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"field"},
		),

		quotaRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_rejections_total",
				Help:      "Operations refused because a plan limit would be exceeded",
			},
			[]string{"resource"},
		),

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method, route and status",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

func (m *Metrics) RecordRateLimit(zone string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	m.rateLimitChecks.WithLabelValues(zone, result).Inc()
}

func (m *Metrics) RecordRateLimitFallback() {
	m.rateLimitFallbacks.Inc()
}

func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// Zero deltas are not recorded
func (m *Metrics) RecordUsageDelta(field string, delta int64) {
	switch {
	case delta > 0:
		m.usageDeltas.WithLabelValues(field, "increment").Inc()
	case delta < 0:
		m.usageDeltas.WithLabelValues(field, "decrement").Inc()
	}
}

func (m *Metrics) RecordReconciliation(err error, storageDrift, uploadsDrift int64) {
	if err != nil {
		m.reconciliations.WithLabelValues("error").Inc()
		return
	}
	m.reconciliations.WithLabelValues("success").Inc()
	m.reconcileDrift.WithLabelValues("storage").Observe(float64(abs(storageDrift)))
	m.reconcileDrift.WithLabelValues("uploads").Observe(float64(abs(uploadsDrift)))
}

func (m *Metrics) RecordQuotaRejection(resource string) {
	m.quotaRejections.WithLabelValues(resource).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
