package pool

import (
	"context"
	"log"
	"time"
)

// refillLoop periodically tops up one zone's buffer. It blocks only on its
// own fetch (bounded by the fetch timeout) and its own tick; it never touches
// a request. A failed fetch is logged and simply retried on the next cycle.
func (s *Store) refillLoop(ctx context.Context, zone string) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.refillZone(ctx, zone)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refillZone runs a single refill cycle: skip if the buffer is healthy,
// otherwise fetch one image worth of regions and append them. Ring semantics
// in the Buffer take care of eviction when appending past capacity.
func (s *Store) refillZone(ctx context.Context, zone string) {
	buf, ok := s.buffers.Load(zone)
	if !ok {
		return
	}
	if current := buf.Len(); current >= s.lowWatermark {
		return
	}

	// acquire a slot before fetching upstream
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.limiter.Release(1)

	flag := s.fetching[zone]
	flag.Store(true)
	defer flag.Store(false)

	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	start := time.Now()
	regions, err := s.fetcher.Fetch(fctx, zone)
	if err != nil {
		log.Printf("[%s] refill fetch failed: %s", zone, err)
		s.observeFetch(zone, statusErr, time.Since(start))
		return
	}

	for _, region := range regions {
		s.Append(zone, region)
	}
	s.observeFetch(zone, statusOk, time.Since(start))
	log.Printf("[%s] refill: +%d regions (buffer: %d)", zone, len(regions), buf.Len())
}
