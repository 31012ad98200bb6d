package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	cacheLookups    *prometheus.CounterVec
	reportBuild     *prometheus.HistogramVec
	evictedKeys     prometheus.Counter
	evictionFailure *prometheus.CounterVec

	progressWrites *prometheus.CounterVec

	dbOnce sync.Once
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linguapath_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linguapath_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "linguapath_http_inflight_requests",
			Help: "HTTP requests currently being served",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linguapath_report_cache_lookups_total",
			Help: "Report cache lookups by level and result (hit, miss, bypass)",
		}, []string{"level", "result"}),
		reportBuild: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linguapath_report_build_duration_seconds",
			Help:    "Time to compute a report on a cache miss",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"level"}),
		evictedKeys: f.NewCounter(prometheus.CounterOpts{
			Name: "linguapath_report_cache_evicted_keys_total",
			Help: "Report cache keys evicted after progress writes",
		}),
		evictionFailure: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linguapath_report_cache_eviction_failures_total",
			Help: "Swallowed invalidation failures by stage (lookup, generation, evict)",
		}, []string{"stage"}),
		progressWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linguapath_progress_writes_total",
			Help: "Progress writes by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterDB exports connection pool stats for db once.
func (m *Metrics) RegisterDB(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	m.dbOnce.Do(func() {
		m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
	})
}

func (m *Metrics) IncInflight() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) DecInflight() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPI(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(level string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(level, "hit").Inc()
}

func (m *Metrics) CacheMiss(level string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(level, "miss").Inc()
}

func (m *Metrics) CacheBypass(level string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(level, "bypass").Inc()
}

func (m *Metrics) ObserveBuild(level string, d time.Duration) {
	if m == nil {
		return
	}
	m.reportBuild.WithLabelValues(level).Observe(d.Seconds())
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictedKeys.Add(float64(n))
}

func (m *Metrics) EvictionFailed(stage string) {
	if m == nil {
		return
	}
	m.evictionFailure.WithLabelValues(stage).Inc()
}

func (m *Metrics) ProgressWrite(kind, outcome string) {
	if m == nil {
		return
	}
	m.progressWrites.WithLabelValues(kind, outcome).Inc()
}
