package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/realdegrees/rng/config"

	"github.com/marusama/semaphore/v2"
	"github.com/puzpuzpuz/xsync"
)

// Fetcher obtains fresh image regions for a zone: raw pixel bytes in,
// possibly an error. Implemented by fetch.Worldcam.
type Fetcher interface {
	Fetch(ctx context.Context, zone string) ([][]byte, error)
}

// Store holds one region Buffer per zone, safe for concurrent access, and
// runs the background refill loops that keep the buffers populated. Requests
// only ever touch the buffers; fetch failures stay inside the refill loops.
type Store struct {

	// prometheus metric gauges
	metrics *StoreMetrics

	// Buffers are held in a sync.Map safe for concurrent access
	buffers *xsync.MapOf[string, *Buffer]

	// zones in configured order, fixed at startup
	zones []string

	// per-zone flag covering the upstream fetch window, for health introspection
	fetching map[string]*atomic.Bool

	// limiter bounds simultaneous upstream fetches across all zones
	limiter semaphore.Semaphore

	fetcher      Fetcher
	lowWatermark int
	interval     time.Duration
	fetchTimeout time.Duration
}

// NewStore properly initializes the buffers and flags for all configured zones.
// Refill does not run until Start is called.
func NewStore(conf *config.Configuration, fetcher Fetcher) *Store {

	store := Store{
		buffers:      xsync.NewMapOf[*Buffer](),
		zones:        conf.Zones,
		fetching:     make(map[string]*atomic.Bool, len(conf.Zones)),
		limiter:      semaphore.New(conf.FetchConcurrency),
		fetcher:      fetcher,
		lowWatermark: conf.LowWatermark,
		interval:     conf.RefillInterval,
		fetchTimeout: conf.FetchTimeout,
	}

	for _, zone := range conf.Zones {
		store.buffers.Store(zone, NewBuffer(conf.BufferCapacity))
		store.fetching[zone] = &atomic.Bool{}
	}

	return &store
}

// Start registers the metric gauges and launches one refill goroutine per
// zone. The goroutines run until ctx is cancelled, i.e. process shutdown.
func (s *Store) Start(ctx context.Context) {
	s.initializePrometheusMetrics()
	for _, zone := range s.zones {
		go s.refillLoop(ctx, zone)
	}
}

// --------------- buffer access ---------------

// Append adds one region to the zone's buffer, evicting the oldest when full.
// Unknown zones are dropped silently.
func (s *Store) Append(zone string, region []byte) {
	if buf, ok := s.buffers.Load(zone); ok {
		buf.Append(region)
	}
}

// TakeOne removes the oldest region from the zone's buffer, if any.
func (s *Store) TakeOne(zone string) ([]byte, bool) {
	buf, ok := s.buffers.Load(zone)
	if !ok {
		return nil, false
	}
	return buf.TakeOne()
}

// Len returns the buffered region count for one zone.
func (s *Store) Len(zone string) int {
	buf, ok := s.buffers.Load(zone)
	if !ok {
		return 0
	}
	return buf.Len()
}

// TotalRegions returns the buffered region count across all zones.
func (s *Store) TotalRegions() (total int) {
	s.buffers.Range(func(_ string, buf *Buffer) bool {
		total += buf.Len()
		return true
	})
	return
}

// ByZone returns the buffered region count per zone.
func (s *Store) ByZone() map[string]int {
	counts := make(map[string]int, len(s.zones))
	for _, zone := range s.zones {
		counts[zone] = s.Len(zone)
	}
	return counts
}

// Zones returns the configured zones in their fixed order.
func (s *Store) Zones() []string {
	return s.zones
}

// Prefetching reports whether any zone is currently inside a fetch cycle.
func (s *Store) Prefetching() bool {
	for _, flag := range s.fetching {
		if flag.Load() {
			return true
		}
	}
	return false
}
