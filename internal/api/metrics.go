package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	compositions *prometheus.CounterVec
	composeTime  prometheus.Histogram
	banners      prometheus.Counter
	visits       prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profileart_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profileart_compositions_total",
			Help: "Decorated avatar requests by outcome.",
		}, []string{"outcome"}),
		composeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "profileart_compose_duration_seconds",
			Help:    "Time spent compositing one decorated avatar.",
			Buckets: prometheus.DefBuckets,
		}),
		banners: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profileart_banner_renders_total",
			Help: "Visitor banners rendered.",
		}),
		visits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profileart_visits_recorded_total",
			Help: "Visits counted after the per-visitor cooldown.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.compositions, m.composeTime, m.banners, m.visits,
	)
	return m
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *metrics) observeCompose(start time.Time) {
	m.composeTime.Observe(time.Since(start).Seconds())
}
