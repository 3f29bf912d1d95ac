// Package metrics exposes Prometheus counters for HTTP traffic and checkouts.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	CheckoutLatency prometheus.Histogram

	registry *prometheus.Registry
}

// New registers every collector on a private registry, so several
// instances (one per test) never clash.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adega",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adega",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adega",
			Name:      "checkouts_total",
			Help:      "Checkouts by outcome (ok, out_of_stock, conflict, ...).",
		}, []string{"outcome"}),
		CheckoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adega",
			Name:      "checkout_duration_seconds",
			Help:      "Time spent processing a checkout, including the transaction.",
			Buckets:   prometheus.DefBuckets,
		}),
		registry: reg,
	}
	reg.MustRegister(
		m.Requests, m.LatencyMS, m.Checkouts, m.CheckoutLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCheckout implements checkout.Observer.
func (m *Metrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	m.Checkouts.WithLabelValues(outcome).Inc()
	m.CheckoutLatency.Observe(elapsed.Seconds())
}

// Middleware counts requests by route template and status.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
