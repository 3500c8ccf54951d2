package entropy

import (
	"context"
	"encoding/binary"
	"net/http"
	"sync/atomic"
	"time"
)

const netIterations = 3

// NetworkJitter measures round-trip latency of HEAD probes against a set of
// endpoints, round-robin. The elapsed time is recorded whether or not the
// probe succeeds: an unreachable endpoint still yields a local timing sample
// (connect attempt + timeout path), so the source degrades instead of failing.
// Each probe is bounded by the configured timeout.
type NetworkJitter struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
	next    atomic.Uint64
}

func NewNetworkJitter(urls []string, timeout time.Duration) *NetworkJitter {
	return &NetworkJitter{
		urls:    urls,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (n *NetworkJitter) Name() string {
	return "network_timing_jitter"
}

func (n *NetworkJitter) Collect(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 0, netIterations*8)
	url := n.nextUrl()

	for range netIterations {
		probeCtx, cancel := context.WithTimeout(ctx, n.timeout)
		t1 := time.Now()
		if req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil); err == nil {
			if resp, err := n.client.Do(req); err == nil {
				resp.Body.Close()
			}
		}
		elapsed := time.Since(t1)
		cancel()
		buf = binary.BigEndian.AppendUint64(buf, uint64(elapsed.Nanoseconds()))
	}

	return buf, nil
}

// nextUrl rotates through the probe endpoints
func (n *NetworkJitter) nextUrl() string {
	if len(n.urls) == 0 {
		// nothing configured: probe a closed local port, the connect
		// attempt itself still yields a timing sample
		return "http://127.0.0.1:1"
	}
	i := n.next.Add(1) - 1
	return n.urls[i%uint64(len(n.urls))]
}
