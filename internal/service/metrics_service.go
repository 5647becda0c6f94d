package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/cbc-reportcard/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the report pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cardsRendered   *prometheus.CounterVec
	pagesRendered   prometheus.Counter
	renderDuration  *prometheus.HistogramVec
	renderFailures  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cardsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_cards_rendered_total",
		Help: "Report cards rendered, by generation mode",
	}, []string{"mode"})

	pagesRendered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_pages_rendered_total",
		Help: "PDF pages emitted across all documents",
	})

	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_render_duration_seconds",
		Help:    "Time spent rendering one output document",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	renderFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_render_failures_total",
		Help: "Generation requests that produced no document",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cardsRendered, pagesRendered, renderDuration, renderFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cardsRendered:   cardsRendered,
		pagesRendered:   pagesRendered,
		renderDuration:  renderDuration,
		renderFailures:  renderFailures,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveRender records a successfully rendered document.
func (m *MetricsService) ObserveRender(mode models.ReportMode, cards, pages int, duration time.Duration) {
	if m == nil {
		return
	}
	m.cardsRendered.WithLabelValues(string(mode)).Add(float64(cards))
	m.pagesRendered.Add(float64(pages))
	m.renderDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
}

// RecordRenderFailure counts a generation request that produced no output.
func (m *MetricsService) RecordRenderFailure() {
	if m == nil {
		return
	}
	m.renderFailures.Inc()
}
