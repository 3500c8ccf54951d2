package entropy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCpuJitterAlwaysYieldsBytes(t *testing.T) {
	t.Parallel()
	src := NewCpuJitter()
	assert.Equal(t, "cpu_timing_jitter", src.Name())

	chunk, err := src.Collect(t.Context())
	require.NoError(t, err)
	assert.Len(t, chunk, cpuIterations*8)
}

func TestOSRandomYieldsFixedChunk(t *testing.T) {
	t.Parallel()
	src := NewOSRandom()
	require.NoError(t, src.Verify())

	a, err := src.Collect(t.Context())
	require.NoError(t, err)
	require.Len(t, a, OSRandomBytes)

	b, err := src.Collect(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNetworkJitterAgainstReachableEndpoint(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := NewNetworkJitter([]string{srv.URL}, time.Second)
	chunk, err := src.Collect(t.Context())
	require.NoError(t, err)
	assert.Len(t, chunk, netIterations*8)
}

func TestNetworkJitterUnreachableEndpointStillSamples(t *testing.T) {
	t.Parallel()
	// nothing listens here; the connect attempt itself is the measurement
	src := NewNetworkJitter([]string{"http://127.0.0.1:1"}, 200*time.Millisecond)

	start := time.Now()
	chunk, err := src.Collect(t.Context())
	require.NoError(t, err)
	assert.Len(t, chunk, netIterations*8)
	assert.Less(t, time.Since(start), 3*time.Second, "probes must be bounded by the timeout")
}

func TestNetworkJitterEmptyUrlListStillSamples(t *testing.T) {
	t.Parallel()
	// misconfiguration must degrade to local fallback probes, not crash
	src := NewNetworkJitter(nil, 200*time.Millisecond)

	chunk, err := src.Collect(t.Context())
	require.NoError(t, err)
	assert.Len(t, chunk, netIterations*8)
	assert.Equal(t, "http://127.0.0.1:1", src.nextUrl())
}

func TestNetworkJitterRoundRobin(t *testing.T) {
	t.Parallel()
	src := NewNetworkJitter([]string{"http://a", "http://b", "http://c"}, time.Second)
	assert.Equal(t, "http://a", src.nextUrl())
	assert.Equal(t, "http://b", src.nextUrl())
	assert.Equal(t, "http://c", src.nextUrl())
	assert.Equal(t, "http://a", src.nextUrl())
}
