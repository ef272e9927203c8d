package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/GlucoRisk/internal/scoring"
)

const namespace = "glucorisk"

// Metrics are the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	scores         *prometheus.CounterVec
	scoreErrors    *prometheus.CounterVec
	scoreDuration  prometheus.Histogram
	historyAppends *prometheus.CounterVec
}

// NewMetrics registers the collectors, plus the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_total",
			Help:      "Successful scores by risk band.",
		}, []string{"band"}),
		scoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_errors_total",
			Help:      "Failed scores by reason.",
		}, []string{"reason"}),
		scoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "Time spent scaling and classifying one vector.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		historyAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_appends_total",
			Help:      "History appends by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.scores,
		m.scoreErrors,
		m.scoreDuration,
		m.historyAppends,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveScore implements scoring.Observer.
func (m *Metrics) ObserveScore(v scoring.Verdict, elapsed time.Duration) {
	m.scores.WithLabelValues(v.Band.String()).Inc()
	m.scoreDuration.Observe(elapsed.Seconds())
}

// ObserveScoreError implements scoring.Observer.
func (m *Metrics) ObserveScoreError(reason string) {
	m.scoreErrors.WithLabelValues(reason).Inc()
}

// ObserveHistoryAppend counts one history write.
func (m *Metrics) ObserveHistoryAppend(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.historyAppends.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
