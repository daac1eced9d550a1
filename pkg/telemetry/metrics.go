package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for browser discovery and
// resolution. When disabled, every Record method is a no-op.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolutions        *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec

	// Finder metrics
	finderCalls    *prometheus.CounterVec
	finderDuration *prometheus.HistogramVec
	finderErrors   *prometheus.CounterVec

	// Candidate metrics
	candidatesFound *prometheus.CounterVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Device metrics
	devicesMatched prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of browser resolutions by outcome",
			},
			[]string{"outcome"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of browser resolution in seconds",
				Buckets:   buckets,
			},
			[]string{"outcome"},
		),

		finderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "finder_calls_total",
				Help:      "Total number of backend finder calls",
			},
			[]string{"finder", "operation"},
		),
		finderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "finder_call_duration_seconds",
				Help:      "Duration of backend finder calls in seconds",
				Buckets:   buckets,
			},
			[]string{"finder", "operation"},
		),
		finderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "finder_errors_total",
				Help:      "Total number of backend finder call errors",
			},
			[]string{"finder", "operation"},
		),

		candidatesFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_found_total",
				Help:      "Total number of browser candidates reported by finders",
			},
			[]string{"finder", "browser_type"},
		),

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of memoization cache hits",
			},
			[]string{"entry_point"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of memoization cache misses",
			},
			[]string{"entry_point"},
		),

		devicesMatched: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "devices_matched",
				Help:      "Number of devices matched per resolution",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
		),
	}

	collectors := []prometheus.Collector{
		m.resolutions,
		m.resolutionDuration,
		m.finderCalls,
		m.finderDuration,
		m.finderErrors,
		m.candidatesFound,
		m.cacheHits,
		m.cacheMisses,
		m.devicesMatched,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordResolution records a completed resolution and its outcome
// (chosen, none, error).
func (m *Metrics) RecordResolution(outcome string, duration time.Duration) {
	if !m.config.Enabled {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
	m.resolutionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordFinderCall records one backend finder call.
func (m *Metrics) RecordFinderCall(finder, operation string, duration time.Duration, err error) {
	if !m.config.Enabled {
		return
	}
	m.finderCalls.WithLabelValues(finder, operation).Inc()
	m.finderDuration.WithLabelValues(finder, operation).Observe(duration.Seconds())
	if err != nil {
		m.finderErrors.WithLabelValues(finder, operation).Inc()
	}
}

// RecordCandidate records one candidate reported by a finder.
func (m *Metrics) RecordCandidate(finder, browserType string) {
	if !m.config.Enabled {
		return
	}
	m.candidatesFound.WithLabelValues(finder, browserType).Inc()
}

// RecordCacheHit records a memoization cache hit for an entry point.
func (m *Metrics) RecordCacheHit(entryPoint string) {
	if !m.config.Enabled {
		return
	}
	m.cacheHits.WithLabelValues(entryPoint).Inc()
}

// RecordCacheMiss records a memoization cache miss for an entry point.
func (m *Metrics) RecordCacheMiss(entryPoint string) {
	if !m.config.Enabled {
		return
	}
	m.cacheMisses.WithLabelValues(entryPoint).Inc()
}

// RecordDevicesMatched records how many devices an enumeration matched.
func (m *Metrics) RecordDevicesMatched(count int) {
	if !m.config.Enabled {
		return
	}
	m.devicesMatched.Observe(float64(count))
}

// StartMetricsServer starts the metrics HTTP server. It returns
// immediately; the server runs until the process exits.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	go func() {
		//nolint:errcheck // server lifetime is the process lifetime
		http.ListenAndServe(m.config.ListenAddress, mux)
	}()

	return nil
}

// Registry exposes the Prometheus registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
