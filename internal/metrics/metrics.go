// Package metrics provides Prometheus instrumentation for the sidecar's
// HTTP surface and the provider call aggregates.
package metrics

import (
	"errors"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbd888/bidguard/internal/forensiq"
)

const namespace = "bidguard"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// BidDecisionsTotal counts sidecar bid decisions.
	BidDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bid_decisions_total",
			Help:      "Bid decisions returned by the check endpoint.",
		},
		[]string{"bid"},
	)

	// MaintenanceRunsTotal counts pool maintenance passes.
	MaintenanceRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "maintenance_runs_total",
		Help:      "Total provider pool maintenance passes.",
	})

	goroutines = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		BidDecisionsTotal,
		MaintenanceRunsTotal,
		goroutines,
	)
}

// RegisterProviderStats exposes a provider's call/latency totals. The
// values are read from s at scrape time, so resets are reflected. Registering
// the same provider again rebinds its series to the new s.
func RegisterProviderStats(reg prometheus.Registerer, provider string, s *forensiq.Stats) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"provider": provider}

	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "provider_calls",
			Help:        "Provider calls recorded since the last stats reset.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.Calls()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "provider_latency_milliseconds",
			Help:        "Summed provider latency in milliseconds since the last stats reset.",
			ConstLabels: labels,
		}, func() float64 { return float64(s.LatencyMillis()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "provider_avg_latency_milliseconds",
			Help:        "Mean provider latency in milliseconds.",
			ConstLabels: labels,
		}, func() float64 { return s.Snapshot().AvgLatencyMillis }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
			reg.Unregister(are.ExistingCollector)
			if err := reg.Register(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // route pattern keeps cardinality bounded
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
