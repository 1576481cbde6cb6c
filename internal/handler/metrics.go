package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	profilesRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profiles_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	profilesRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profiles_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	profilesEnrichmentDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profiles_enrichment_degraded_total",
		Help: "Profile enrichment stages that fell back to their default value.",
	}, []string{"stage"})

	profilesHealthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profiles_health_checks_total",
		Help: "Total dependency health probes by dependency and result.",
	}, []string{"dependency", "result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		profilesRequestsTotal.WithLabelValues(method, path, status).Inc()
		profilesRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDegradedEnrichment counts a denormalization stage that fell back.
func RecordDegradedEnrichment(stage string) {
	profilesEnrichmentDegradedTotal.WithLabelValues(stage).Inc()
}

// RecordHealthCheck records a dependency probe result.
func RecordHealthCheck(dependency string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	profilesHealthChecksTotal.WithLabelValues(dependency, result).Inc()
}
