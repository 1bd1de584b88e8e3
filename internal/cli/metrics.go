package cli

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/snapstack/pkg/observability"
)

// metricsCollector bundles the Prometheus metrics for the serve command
// and adapts the observability hooks onto them.
type metricsCollector struct {
	gatherer prometheus.Gatherer

	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec

	stageDurations *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
	transactions   *prometheus.CounterVec
	snapCandidates prometheus.Histogram
}

// newMetricsCollector registers the serve metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func newMetricsCollector(reg prometheus.Registerer) (*metricsCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapstack_http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"})
	requests, err := registerCounterVec(reg, requests, "snapstack_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapstack_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})
	durations, err = registerHistogramVec(reg, durations, "snapstack_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	stages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapstack_stage_duration_seconds",
		Help:    "Pipeline stage duration in seconds, labeled by stage and outcome.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"stage", "status"})
	stages, err = registerHistogramVec(reg, stages, "snapstack_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	cacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapstack_cache_operations_total",
		Help: "Cache operations, labeled by key type and result (hit, miss, set).",
	}, []string{"key_type", "result"})
	cacheOps, err = registerCounterVec(reg, cacheOps, "snapstack_cache_operations_total")
	if err != nil {
		return nil, err
	}

	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapstack_engine_transactions_total",
		Help: "Engine transactions, labeled by kind (connect, disconnect, move) and status.",
	}, []string{"kind", "status"})
	transactions, err = registerCounterVec(reg, transactions, "snapstack_engine_transactions_total")
	if err != nil {
		return nil, err
	}

	snapCandidates, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapstack_snap_query_candidates",
		Help:    "Number of eligible candidates per snap radius query.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	}), "snapstack_snap_query_candidates")
	if err != nil {
		return nil, err
	}

	return &metricsCollector{
		gatherer:       gatherer,
		httpRequests:   requests,
		httpDurations:  durations,
		stageDurations: stages,
		cacheOps:       cacheOps,
		transactions:   transactions,
		snapCandidates: snapCandidates,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *metricsCollector) Handler() http.Handler {
	gatherer := m.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Install wires the collector into the process-wide observability hooks so
// pipeline, cache, and engine events feed the metrics.
func (m *metricsCollector) Install() {
	observability.SetPipelineHooks(pipelineMetrics{c: m})
	observability.SetCacheHooks(cacheMetrics{c: m})
	observability.SetEngineHooks(engineMetrics{c: m})
}

// ObserveRequest records one handled HTTP request.
func (m *metricsCollector) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *metricsCollector) observeStage(stage string, duration time.Duration, err error) {
	m.stageDurations.WithLabelValues(stage, statusLabel(err)).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Hook Adapters
// =============================================================================

type pipelineMetrics struct {
	observability.NoopPipelineHooks
	c *metricsCollector
}

func (p pipelineMetrics) OnLoadComplete(_ context.Context, _ string, _ int, duration time.Duration, err error) {
	p.c.observeStage("load", duration, err)
}

func (p pipelineMetrics) OnLayoutComplete(_ context.Context, _ int, duration time.Duration, err error) {
	p.c.observeStage("layout", duration, err)
}

func (p pipelineMetrics) OnExportComplete(_ context.Context, _ []string, duration time.Duration, err error) {
	p.c.observeStage("export", duration, err)
}

type cacheMetrics struct {
	observability.NoopCacheHooks
	c *metricsCollector
}

func (cm cacheMetrics) OnCacheHit(_ context.Context, keyType string) {
	cm.c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (cm cacheMetrics) OnCacheMiss(_ context.Context, keyType string) {
	cm.c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (cm cacheMetrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	cm.c.cacheOps.WithLabelValues(keyType, "set").Inc()
}

type engineMetrics struct {
	observability.NoopEngineHooks
	c *metricsCollector
}

func (em engineMetrics) OnTransactionComplete(_ context.Context, kind string, _ time.Duration, err error) {
	em.c.transactions.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (em engineMetrics) OnSnapQuery(_ context.Context, candidates int) {
	em.c.snapCandidates.Observe(float64(candidates))
}

// =============================================================================
// Registration
// =============================================================================

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
