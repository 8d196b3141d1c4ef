package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	itineraries    *prometheus.CounterVec
	budgetFits     *prometheus.CounterVec
	packages       *prometheus.CounterVec
	notifyFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wanderplan",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		itineraries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Name:      "itineraries_generated_total",
			Help:      "Generated itineraries by budget status and catalog degradation.",
		}, []string{"budget_status", "degraded"}),
		budgetFits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Name:      "budget_fits_total",
			Help:      "Budget fit attempts by outcome.",
		}, []string{"outcome"}),
		packages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Name:      "packages_built_total",
			Help:      "Packages built by travel style and affordability.",
		}, []string{"style", "affordable"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.itineraries, m.budgetFits, m.packages, m.notifyFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
