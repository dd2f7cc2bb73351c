package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the prometheus registry labels.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes application-level instruments backed by a dedicated
// prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	auditAppends  *prometheus.CounterVec
	billsComputed prometheus.Counter
	importsDenied prometheus.Counter
	forecastRuns  prometheus.Counter
	optimizeRuns  *prometheus.CounterVec
}

// New builds the instrument set and registers it.
func New(cfg Config) (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	constLabels := prometheus.Labels{}
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		constLabels["service"] = name
	}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		constLabels["env"] = env
	}

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ratewise_http_requests_total",
			Help:        "Count of HTTP requests by method, route and status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "ratewise_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		auditAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ratewise_audit_appends_total",
			Help:        "Count of audit ledger appends by action.",
			ConstLabels: constLabels,
		}, []string{"action"}),
		billsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ratewise_bills_computed_total",
			Help:        "Count of bill computations.",
			ConstLabels: constLabels,
		}),
		importsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ratewise_imports_denied_total",
			Help:        "Count of dataset imports denied by the rate limiter.",
			ConstLabels: constLabels,
		}),
		forecastRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ratewise_forecast_runs_total",
			Help:        "Count of forecast projection runs.",
			ConstLabels: constLabels,
		}),
		optimizeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ratewise_optimize_runs_total",
			Help:        "Count of rate optimization runs by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.auditAppends,
		m.billsComputed,
		m.importsDenied,
		m.forecastRuns,
		m.optimizeRuns,
	)
	return m, nil
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMiddleware records per-request counters and latency.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		if route == "/metrics" {
			return
		}

		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordAuditAppend(action string) {
	if m == nil {
		return
	}
	m.auditAppends.WithLabelValues(strings.TrimSpace(action)).Inc()
}

func (m *Metrics) RecordBillComputed() {
	if m == nil {
		return
	}
	m.billsComputed.Inc()
}

func (m *Metrics) RecordImportDenied() {
	if m == nil {
		return
	}
	m.importsDenied.Inc()
}

func (m *Metrics) RecordForecastRun() {
	if m == nil {
		return
	}
	m.forecastRuns.Inc()
}

func (m *Metrics) RecordOptimizeRun(satisfied bool) {
	if m == nil {
		return
	}
	outcome := "unsatisfied"
	if satisfied {
		outcome = "satisfied"
	}
	m.optimizeRuns.WithLabelValues(outcome).Inc()
}
