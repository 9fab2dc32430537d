package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	qaRequestsTotal  *prometheus.CounterVec
	qaCandidates     *prometheus.HistogramVec
	qaDegradedTotal  *prometheus.CounterVec
	qaNoContextTotal *prometheus.CounterVec
	qaDuration       *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	qaRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqa",
			Subsystem: "qa",
			Name:      "requests_total",
			Help:      "Total answered questions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	qaCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mqa",
			Subsystem: "qa",
			Name:      "candidates",
			Help:      "Distribution of ranked candidates per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	qaDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqa",
			Subsystem: "qa",
			Name:      "degraded_total",
			Help:      "Total answers produced in degraded mode (stale corpus or lexical-only ranking).",
		},
		[]string{"service"},
	)
	qaNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mqa",
			Subsystem: "qa",
			Name:      "no_context_total",
			Help:      "Total questions answered without any cited source.",
		},
		[]string{"service"},
	)
	qaDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mqa",
			Subsystem: "qa",
			Name:      "duration_seconds",
			Help:      "End-to-end QA pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		qaRequestsTotal,
		qaCandidates,
		qaDegradedTotal,
		qaNoContextTotal,
		qaDuration,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		qaRequestsTotal:  qaRequestsTotal,
		qaCandidates:     qaCandidates,
		qaDegradedTotal:  qaDegradedTotal,
		qaNoContextTotal: qaNoContextTotal,
		qaDuration:       qaDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordAnswer tracks one completed QA pipeline run.
func (m *HTTPServerMetrics) RecordAnswer(service string, sourceCount int, degraded bool, duration time.Duration) {
	m.qaRequestsTotal.WithLabelValues(service, "ok").Inc()
	m.qaCandidates.WithLabelValues(service).Observe(float64(sourceCount))
	m.qaDuration.WithLabelValues(service).Observe(duration.Seconds())

	if degraded {
		m.qaDegradedTotal.WithLabelValues(service).Inc()
	}
	if sourceCount == 0 {
		m.qaNoContextTotal.WithLabelValues(service).Inc()
	}
}

// RecordAnswerError tracks one failed QA pipeline run by error kind.
func (m *HTTPServerMetrics) RecordAnswerError(service, kind string) {
	m.qaRequestsTotal.WithLabelValues(service, kind).Inc()
}
