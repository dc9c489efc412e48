// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/strata/pkg/observability"
)

const namespace = "strata"

// Metrics records pipeline, cache and HTTP events. It implements
// [observability.PipelineHooks], [observability.CacheHooks] and
// [observability.HTTPHooks].
type Metrics struct {
	arrangeDuration *prometheus.HistogramVec
	arrangeVertices prometheus.Histogram
	refinePasses    prometheus.Histogram
	refineSwaps     prometheus.Counter
	deadlineHits    prometheus.Counter

	renderDuration *prometheus.HistogramVec
	renderBytes    *prometheus.CounterVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// =====================================================================
		// Pipeline
		// =====================================================================
		arrangeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "arrange",
			Name:      "duration_seconds",
			Help:      "Time spent arranging a graph, by outcome",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 3, 5, 10, 15, 30},
		}, []string{"status"}),
		arrangeVertices: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "arrange",
			Name:      "vertices",
			Help:      "Vertex count of arranged graphs",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 9),
		}),
		refinePasses: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refine",
			Name:      "passes",
			Help:      "Refinement iterations completed per arrangement",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 30},
		}),
		refineSwaps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refine",
			Name:      "swaps_total",
			Help:      "Total position swaps made by refinement",
		}),
		deadlineHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refine",
			Name:      "deadline_exceeded_total",
			Help:      "Arrangements whose refinement stopped at the global deadline",
		}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time spent rendering, by format and outcome",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format", "status"}),
		renderBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "bytes_total",
			Help:      "Bytes of rendered output, by format",
		}, []string{"format"}),

		// =====================================================================
		// Cache
		// =====================================================================
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache lookups and writes, by key type and event",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache, by key type",
		}, []string{"key_type"}),

		// =====================================================================
		// HTTP
		// =====================================================================
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Served requests, by method, route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency, by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnArrangeStart(context.Context, int) {}

func (m *Metrics) OnArrangeComplete(_ context.Context, ev observability.ArrangeEvent, d time.Duration, err error) {
	st := status(err)
	if err == nil && ev.CacheHit {
		st = "cached"
	}
	m.arrangeDuration.WithLabelValues(st).Observe(d.Seconds())
	if err != nil || ev.CacheHit {
		return
	}
	m.arrangeVertices.Observe(float64(ev.Vertices))
	m.refinePasses.Observe(float64(ev.Passes))
	m.refineSwaps.Add(float64(ev.Swaps))
	if ev.DeadlineExceeded {
		m.deadlineHits.Inc()
	}
}

func (m *Metrics) OnRenderStart(context.Context, string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.renderDuration.WithLabelValues(format, status(err)).Observe(d.Seconds())
	if err == nil {
		m.renderBytes.WithLabelValues(format).Add(float64(size))
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.httpInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.httpInFlight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
