// Package metrics holds the Prometheus collectors for the service
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances
type Metrics struct {
	registry *prometheus.Registry

	predictions       *prometheus.CounterVec
	predictionLatency *prometheus.HistogramVec
	predictedCost     *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	rateLimited       prometheus.Counter
	modelLoaded       prometheus.Gauge
	featuresLoaded    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcost_predictions_total",
				Help: "Total number of predictions by estimation method and outcome",
			},
			[]string{"method", "outcome"},
		),
		predictionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthcost_prediction_duration_seconds",
				Help:    "Time spent computing a prediction",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.02, 0.1},
			},
			[]string{"method"},
		),
		predictedCost: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthcost_predicted_cost_maloti",
				Help:    "Distribution of predicted annual healthcare costs",
				Buckets: []float64{1000, 2500, 5000, 7500, 10000, 15000, 20000, 30000},
			},
			[]string{"method"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthcost_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthcost_http_request_duration_seconds",
				Help:    "HTTP handler duration",
				Buckets: []float64{0.001, 0.005, 0.02, 0.1, 0.3, 1},
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthcost_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthcost_model_loaded",
			Help: "1 when a trained artifact is serving predictions, 0 in demo mode",
		}),
		featuresLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthcost_features_loaded",
			Help: "Number of features the active estimator consumes",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.predictions,
		m.predictionLatency,
		m.predictedCost,
		m.httpRequests,
		m.httpLatency,
		m.rateLimited,
		m.modelLoaded,
		m.featuresLoaded,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObservePrediction(method, outcome string, cost float64, d time.Duration) {
	m.predictions.WithLabelValues(method, outcome).Inc()
	m.predictionLatency.WithLabelValues(method).Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		m.predictedCost.WithLabelValues(method).Observe(cost)
	}
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) SetModel(loaded bool, features int) {
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
	m.featuresLoaded.Set(float64(features))
}

// Prediction outcomes
const (
	OutcomeSuccess         = "success"
	OutcomeUnknownCategory = "unknown_category"
	OutcomeFailure         = "failure"
)
