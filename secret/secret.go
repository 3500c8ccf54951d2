// Package secret manages the rotating session secret that keys the
// per-request hash. Exactly one secret is active at any instant; the
// rotation check, the swap and every read run under one mutex so no caller
// can observe a torn or superseded secret. Only the entropy gathering for a
// rotation happens outside the lock, since it performs network I/O.
package secret

import (
	"context"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// rotationLabel domain-separates secret generation from value derivation.
const rotationLabel = "rng/secret/v1"

// EntropyFunc supplies the entropy material for a rotation. The engine wires
// in its live collection path here (jitter + OS random + one region per zone
// + the current request counter).
type EntropyFunc func(ctx context.Context) []byte

// Manager holds the active session secret and rotates it after a fixed
// number of uses or a fixed age, whichever comes first.
type Manager struct {
	mu        sync.Mutex
	secret    []byte
	createdAt time.Time
	useCount  int

	// true while one caller gathers rotation entropy outside the lock;
	// other callers keep serving the old secret until the swap lands
	rotating bool

	maxUses int
	maxAge  time.Duration
	entropy EntropyFunc

	rotations atomic.Uint64
}

// NewManager seeds the initial secret from 64 OS-random bytes and the
// startup timestamp. The entropy func is only invoked on rotations.
func NewManager(maxUses int, maxAge time.Duration, entropy EntropyFunc) *Manager {
	seed := make([]byte, 64)
	if _, err := crand.Read(seed); err != nil {
		// startup-fatal, same class as the engine's os-random check
		log.Fatalf("secret: cannot seed initial secret: %s", err)
	}
	seed = binary.BigEndian.AppendUint64(seed, uint64(time.Now().UnixNano()))
	initial := sha256.Sum256(seed)

	return &Manager{
		secret:    initial[:],
		createdAt: time.Now(),
		maxUses:   maxUses,
		maxAge:    maxAge,
		entropy:   entropy,
	}
}

// Current returns a copy of the active secret for one request derivation,
// rotating first if the use or age threshold is reached. Reading counts as
// one use.
//
// The entropy gathering for a rotation involves network I/O (jitter probes)
// and must not happen under the lock: the first caller to find a rotation
// due releases the lock, collects, re-acquires and swaps. Concurrent readers
// keep serving the old secret meanwhile, and the rotating flag keeps a
// single eligible check from rotating more than once.
func (m *Manager) Current(ctx context.Context) []byte {
	m.mu.Lock()

	if m.rotationDue() && !m.rotating {
		m.rotating = true
		m.mu.Unlock()

		var material []byte
		if m.entropy != nil {
			material = m.entropy(ctx)
		}

		m.mu.Lock()
		m.rotate(material)
		m.rotating = false
	}
	m.useCount++

	out := make([]byte, len(m.secret))
	copy(out, m.secret)
	m.mu.Unlock()
	return out
}

// rotationDue must be called with the mutex held.
func (m *Manager) rotationDue() bool {
	return m.useCount >= m.maxUses || time.Since(m.createdAt) >= m.maxAge
}

// rotate chains the next secret off the current one:
// next = HMAC-SHA256(current, label || entropy || timestamp).
// Pure CPU; must be called with the mutex held.
func (m *Manager) rotate(material []byte) {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(rotationLabel))
	mac.Write(material)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	mac.Write(ts[:])

	m.secret = mac.Sum(nil)
	m.useCount = 0
	m.createdAt = time.Now()
	m.rotations.Add(1)
}

// Rotations returns the number of rotations performed since startup.
func (m *Manager) Rotations() uint64 {
	return m.rotations.Load()
}

// Stats returns the current use count and creation time of the active secret.
func (m *Manager) Stats() (useCount int, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.useCount, m.createdAt
}
