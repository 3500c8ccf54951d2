package rng

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type EngineMetrics struct {

	// served requests with their status and derivation latency
	RequestsServed prometheus.CounterVec
	DeriveDuration prometheus.Histogram

	// secret rotations since startup, read off the manager
	SecretRotations prometheus.CounterFunc
}

// derivation is dominated by the jitter loops, so sub-second buckets
var deriveBuckets = []float64{0.0005, 0.001, 0.005, 0.010, 0.050, 0.100, 0.5, 1, 5}

// InitializePrometheusMetrics creates and registers the engine gauges.
// Called once from main; the engine works without it (tests).
func (e *Engine) InitializePrometheusMetrics() {
	if e.metrics != nil {
		return // initialized already
	}
	m := &EngineMetrics{}
	e.metrics = m

	m.RequestsServed = *promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rng_requests_total",
		Help: "served rng requests; partitioned by status",
	}, []string{"status"})

	m.DeriveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rng_derive_duration_seconds",
		Help:    "duration of one collect+derive cycle",
		Buckets: deriveBuckets,
	})

	m.SecretRotations = promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "rng_secret_rotations_total",
		Help: "session secret rotations since startup",
	}, func() float64 {
		return float64(e.secrets.Rotations())
	})

}

// observeRequest records one served request; safe without registration
func (e *Engine) observeRequest(status string, dur time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RequestsServed.With(prometheus.Labels{"status": status}).Inc()
	e.metrics.DeriveDuration.Observe(dur.Seconds())
}

const (
	statusOk  = "ok"
	statusErr = "err"
)
