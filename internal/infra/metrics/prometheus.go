// Package metrics exposes contest activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements app.Metrics on a private registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	participantsScored *prometheus.CounterVec
	pointsAwarded      *prometheus.HistogramVec
	keyUpdates         *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	operationCounter   *prometheus.CounterVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		participantsScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contest_participants_scored_total",
				Help: "Answer sheets scored, including rescoring.",
			},
			[]string{"category"},
		),
		pointsAwarded: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contest_points_awarded",
				Help:    "Distribution of points per scored sheet.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"category"},
		),
		keyUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contest_answer_key_updates_total",
				Help: "Answer key replacements per category.",
			},
			[]string{"category"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contest_operation_duration_seconds",
				Help:    "Execution time of contest service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contest_operations_total",
				Help: "Contest service operations by outcome.",
			},
			[]string{"operation", "status"},
		),
	}
}

func (m *PrometheusMetrics) ParticipantScored(category domain.Category, points int) {
	m.participantsScored.WithLabelValues(string(category)).Inc()
	m.pointsAwarded.WithLabelValues(string(category)).Observe(float64(points))
}

func (m *PrometheusMetrics) KeyUpdated(category domain.Category) {
	m.keyUpdates.WithLabelValues(string(category)).Inc()
}

func (m *PrometheusMetrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operationLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
	m.operationCounter.WithLabelValues(operation, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
