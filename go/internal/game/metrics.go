package game

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Remote operations reported to the MetricsCollector.
const (
	OpStart  = "start"
	OpStatus = "status"
	OpReset  = "reset"
)

// MetricsCollector defines the interface for collecting session metrics
type MetricsCollector interface {
	RecordRemoteCall(op string, success bool, duration time.Duration)
	RecordCompletion(seconds float64)
	SetActive(active bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordRemoteCall(op string, success bool, duration time.Duration) {}
func (NoOpMetricsCollector) RecordCompletion(seconds float64)                                 {}
func (NoOpMetricsCollector) SetActive(active bool)                                            {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	completion     prometheus.Histogram
	active         prometheus.Gauge
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiosk",
			Name:      "game_api_requests_total",
			Help:      "Total requests to the game backend by operation and result status.",
		}, []string{"op", "status"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kiosk",
			Name:      "game_api_request_duration_seconds",
			Help:      "Game backend request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"op"}),
		completion: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kiosk",
			Name:      "session_completion_seconds",
			Help:      "Time players took to plug in every target port.",
			Buckets:   []float64{2, 5, 10, 15, 20, 30, 45, 60, 120},
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kiosk",
			Name:      "session_active",
			Help:      "Whether a session is currently running (1) or not (0).",
		}),
	}
	reg.MustRegister(m.remoteCalls, m.remoteDuration, m.completion, m.active)
	return m
}

func (m *PrometheusMetrics) RecordRemoteCall(op string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.remoteCalls.WithLabelValues(op, status).Inc()
	m.remoteDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordCompletion(seconds float64) {
	m.completion.Observe(seconds)
}

func (m *PrometheusMetrics) SetActive(active bool) {
	if active {
		m.active.Set(1)
		return
	}
	m.active.Set(0)
}
