package bftengine

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's prometheus collectors. The zero value is not
// usable; construct with NewMetrics, which registers the collectors on a
// registry the caller owns and passes in — the engine never reaches for a
// global registry.
type Metrics struct {
	SignSeconds   *prometheus.HistogramVec
	VerifySeconds *prometheus.HistogramVec
	Effects       *prometheus.CounterVec
}

// NewMetrics builds and registers a Metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bftengine",
			Name:      "sign_seconds",
			Help:      "Latency of signing a vote or proposal.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		VerifySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bftengine",
			Name:      "verify_seconds",
			Help:      "Latency of verifying a received vote or proposal's signature.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		Effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bftengine",
			Name:      "effects_total",
			Help:      "Count of effects emitted by the engine, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.SignSeconds, m.VerifySeconds, m.Effects)
	return m
}
