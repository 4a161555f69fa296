// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures request
// counts, latencies, in-flight concurrency and response sizes, labelled by
// method, registered route and status so cardinality stays bounded.
//
// It also owns the request-trust counters: CSRF rejections, rate-limit
// decisions per scope, sanitizer redactions and rejected attachment paths.
// The trust middleware in this package increments them directly; handlers use
// the Record* helpers.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize captures response sizes in bytes. PDF exports make the
	// upper buckets larger than a pure JSON API would need.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 1 << 10, 5 << 10, 25 << 10, 100 << 10,
				500 << 10, 1 << 20, 5 << 20, 20 << 20,
			},
		},
		[]string{"method", "path"},
	)

	csrfRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "csrf_rejections_total",
			Help: "State-changing requests rejected by the origin check.",
		},
	)

	// rateDecisions counts quota checks by scope ("api", "ai") and outcome
	// ("allowed", "limited").
	rateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Fixed-window rate limit decisions.",
		},
		[]string{"scope", "outcome"},
	)

	sanitizerRedactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sanitizer_redactions_total",
			Help: "Prompt-injection patterns removed from untrusted input.",
		},
	)

	attachmentRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attachment_path_rejections_total",
			Help: "Attachment paths refused by the allow-list.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpReqs, httpLat, httpInflight, httpRespSize,
		csrfRejections, rateDecisions, sanitizerRedactions, attachmentRejections,
	)
}

// RecordRedactions adds n to the sanitizer redaction counter.
func RecordRedactions(n int) {
	if n > 0 {
		sanitizerRedactions.Add(float64(n))
	}
}

// RecordAttachmentRejection counts one refused attachment path.
func RecordAttachmentRejection() { attachmentRejections.Inc() }

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// The "path" label is the registered route (c.FullPath()); unmatched requests
// are folded into a single "unmatched" label so scanners cannot inflate
// cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
