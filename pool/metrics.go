package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/maps"
)

type StoreMetrics struct {

	// track buffered entropy material
	BufferedRegions prometheus.GaugeFunc // total regions, also refreshes the per-zone gauge
	RegionsPerZone  prometheus.GaugeVec  // buffered regions, partitioned by zone

	// track the background refill loops
	FetchDuration prometheus.HistogramVec // upstream fetch duration with status, per zone
}

// list of useful histogram buckets for upstream fetches
var fetchBuckets = []float64{0.050, 0.100, 0.250, 0.5, 1, 2.5, 5, 10, 15}

// create and register all the metric gauges
func (s *Store) initializePrometheusMetrics() {
	if s.metrics != nil {
		return // initialized already
	}
	m := &StoreMetrics{}
	s.metrics = m

	// buffered regions per zone
	m.RegionsPerZone = *promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rng_buffered_regions_zone",
		Help: "buffered image regions, partitioned by zone",
	}, []string{"zone"})

	// total buffered regions, which also updates the per-zone gauge
	m.BufferedRegions = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rng_buffered_regions",
		Help: "total buffered image regions across all zones",
	}, func() float64 {
		counts := s.ByZone()
		total := 0
		for _, zone := range maps.Keys(counts) {
			m.RegionsPerZone.WithLabelValues(zone).Set(float64(counts[zone]))
			total += counts[zone]
		}
		return float64(total)
	})

	// upstream fetch durations with their success status
	m.FetchDuration = *promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rng_fetch_duration_seconds",
		Help:    "upstream image fetch duration; partitioned by zone and status",
		Buckets: fetchBuckets,
	}, []string{"zone", "status"})

}

// observeFetch records one refill fetch; safe to call before Start
func (s *Store) observeFetch(zone, status string, dur time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.FetchDuration.With(prometheus.Labels{"zone": zone, "status": status}).Observe(dur.Seconds())
}

const (
	statusOk  = "ok"
	statusErr = "err"
)
