// pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shipyard"

// Collector holds the Prometheus collectors of the analysis service. Each
// collector gets its own registry so tests and multiple services never
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	unknownParts     prometheus.Counter
	uploadsTotal     *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rateLimited      prometheus.Counter
	cacheEntries     prometheus.Gauge
}

// NewCollector creates and registers all collectors
func NewCollector() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Blueprint analyses by result",
			},
			[]string{"result"},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent analysing one blueprint, rendering and upload included",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		unknownParts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unknown_parts_total",
				Help:      "Distinct unknown part ids seen per analysis",
			},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Image uploads by result",
			},
			[]string{"result"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time spent serving HTTP requests",
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_entries",
				Help:      "Analysis reports held in the cache",
			},
		),
	}

	m.registry.MustRegister(
		m.analysesTotal,
		m.analysisDuration,
		m.unknownParts,
		m.uploadsTotal,
		m.requestsTotal,
		m.requestDuration,
		m.rateLimited,
		m.cacheEntries,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAnalysis counts one analysis. result is "ok", "cached" or "error".
func (m *Collector) RecordAnalysis(result string, duration time.Duration) {
	m.analysesTotal.WithLabelValues(result).Inc()
	if result != "cached" {
		m.analysisDuration.Observe(duration.Seconds())
	}
}

// RecordUnknownParts adds the number of distinct unknown ids in a blueprint
func (m *Collector) RecordUnknownParts(n int) {
	if n > 0 {
		m.unknownParts.Add(float64(n))
	}
}

// RecordUpload counts one upload attempt
func (m *Collector) RecordUpload(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
}

// RecordRequest counts one HTTP request
func (m *Collector) RecordRequest(route string, code int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, http.StatusText(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRateLimited counts one rejected request
func (m *Collector) RecordRateLimited() {
	m.rateLimited.Inc()
}

// SetCacheEntries reports the current cache size
func (m *Collector) SetCacheEntries(n int) {
	m.cacheEntries.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
