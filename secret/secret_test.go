package secret

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticEntropy(ctx context.Context) []byte {
	return []byte("entropy")
}

func TestCurrentReturnsStableSecretBeforeRotation(t *testing.T) {
	t.Parallel()
	m := NewManager(100, time.Hour, staticEntropy)

	a := m.Current(t.Context())
	b := m.Current(t.Context())
	require.Len(t, a, 32)
	assert.Equal(t, a, b, "no rotation due, reads must observe the same secret")

	uses, _ := m.Stats()
	assert.Equal(t, 2, uses)
}

func TestRotationAfterMaxUses(t *testing.T) {
	t.Parallel()
	m := NewManager(3, time.Hour, staticEntropy)

	first := m.Current(t.Context())
	m.Current(t.Context())
	m.Current(t.Context())
	require.Equal(t, uint64(0), m.Rotations())

	// fourth read finds useCount at the threshold and rotates first
	rotated := m.Current(t.Context())
	assert.Equal(t, uint64(1), m.Rotations())
	assert.NotEqual(t, first, rotated)

	// useCount reset to zero by the rotation, then one read counted
	uses, createdAt := m.Stats()
	assert.Equal(t, 1, uses)
	assert.WithinDuration(t, time.Now(), createdAt, time.Second)
}

func TestRotationAfterMaxAge(t *testing.T) {
	t.Parallel()
	m := NewManager(100, 10*time.Millisecond, staticEntropy)

	first := m.Current(t.Context())
	time.Sleep(25 * time.Millisecond)

	rotated := m.Current(t.Context())
	assert.Equal(t, uint64(1), m.Rotations())
	assert.NotEqual(t, first, rotated)
}

func TestRotationAtMostOncePerEligibleCheck(t *testing.T) {
	t.Parallel()
	m := NewManager(1, time.Hour, staticEntropy)

	m.Current(t.Context()) // use 1
	m.Current(t.Context()) // rotates once, use 1 of new secret
	assert.Equal(t, uint64(1), m.Rotations())
}

func TestReturnedSecretIsACopy(t *testing.T) {
	t.Parallel()
	m := NewManager(100, time.Hour, staticEntropy)

	a := m.Current(t.Context())
	for i := range a {
		a[i] = 0
	}
	b := m.Current(t.Context())
	assert.NotEqual(t, a, b, "mutating a returned secret must not affect the manager")
}

func TestSlowRotationEntropyDoesNotStallReaders(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	m := NewManager(3, time.Hour, func(ctx context.Context) []byte {
		// stand-in for the jitter probes: rotation entropy can take seconds
		close(started)
		<-release
		return []byte("slow entropy")
	})

	before := m.Current(t.Context()) // use 1
	m.Current(t.Context())           // use 2
	m.Current(t.Context())           // use 3, reaches the threshold

	// this call finds the rotation due and blocks in the entropy callback
	go m.Current(context.Background())
	<-started

	// concurrent readers must keep being served from the old secret
	// instead of stalling behind the in-flight entropy gathering
	start := time.Now()
	during := m.Current(t.Context())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond, "reader stalled behind rotation entropy I/O")
	assert.Equal(t, before, during)
	assert.Equal(t, uint64(0), m.Rotations())

	// once the entropy arrives the swap lands and readers see the new secret
	close(release)
	require.Eventually(t, func() bool {
		return m.Rotations() == 1
	}, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, before, m.Current(t.Context()))
}

func TestConcurrentReadsNeverObserveTornSecret(t *testing.T) {
	t.Parallel()
	m := NewManager(5, time.Hour, staticEntropy)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				s := m.Current(context.Background())
				if len(s) != 32 {
					t.Errorf("observed secret of length %d", len(s))
				}
			}
		}()
	}
	wg.Wait()

	// 1000 uses at threshold 5: rotations happened, secret still well-formed
	assert.Greater(t, m.Rotations(), uint64(0))
}
