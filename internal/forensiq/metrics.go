package forensiq

import "github.com/prometheus/client_golang/prometheus"

var (
	fqEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidguard",
		Subsystem: "forensiq",
		Name:      "evaluations_total",
		Help:      "Total fraud evaluations by outcome.",
	}, []string{"outcome"}) // "clear", "flagged", "unavailable"

	fqFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bidguard",
		Subsystem: "forensiq",
		Name:      "failures_total",
		Help:      "Provider failures absorbed into the unavailable outcome, by kind.",
	}, []string{"kind"}) // "transport", "bad_status", "malformed_response", "circuit_open", "canceled"

	fqRoundTrip = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bidguard",
		Subsystem: "forensiq",
		Name:      "round_trip_seconds",
		Help:      "Provider round-trip time for completed checks in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	fqRiskScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bidguard",
		Subsystem: "forensiq",
		Name:      "risk_score",
		Help:      "Distribution of provider risk scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	fqInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bidguard",
		Subsystem: "forensiq",
		Name:      "in_flight_requests",
		Help:      "Provider requests currently executing.",
	})
)

func init() {
	prometheus.MustRegister(
		fqEvaluations,
		fqFailures,
		fqRoundTrip,
		fqRiskScore,
		fqInFlight,
	)
}
