// Package rng implements the mixing engine: it gathers chunks from all
// entropy sources, concatenates them in a fixed order and derives one float
// in [0, 1) per request through a keyed hash under the rotating session
// secret. Not a CSPRNG; the guarantee is a defined mixing procedure and
// liveness, not unpredictability.
package rng

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"time"

	"github.com/realdegrees/rng/entropy"
	"github.com/realdegrees/rng/pool"
	"github.com/realdegrees/rng/secret"
)

// ErrDegraded is returned when not a single entropy contribution could be
// gathered. The handler turns this into a 503 instead of ever serving a
// low-entropy value.
var ErrDegraded = errors.New("all entropy sources exhausted, service degraded")

// derivationLabel domain-separates value derivation from secret rotation.
const derivationLabel = "rng/value/v1"

// Engine orchestrates the per-request collection and derivation. It is
// stateless per request; the zone buffers, the secret and the counter are
// the only shared state and each carries its own synchronization.
type Engine struct {

	// prometheus metrics
	metrics *EngineMetrics

	cpu    entropy.Source
	net    entropy.Source
	osrand entropy.Source
	store  *pool.Store

	secrets *secret.Manager

	// strictly unique per served request
	counter atomic.Uint64
}

// NewEngine wires the sources, the region store and a fresh secret manager.
// Rotation entropy is drawn through the same collection path as requests.
func NewEngine(cpu, net, osrand entropy.Source, store *pool.Store, rotateUses int, rotateAge time.Duration) *Engine {
	e := &Engine{
		cpu:    cpu,
		net:    net,
		osrand: osrand,
		store:  store,
	}
	e.secrets = secret.NewManager(rotateUses, rotateAge, e.rotationEntropy)
	return e
}

// Random serves one request:
// collect from all sources, concatenate in fixed order, obtain the active
// secret (rotating it first if due), HMAC and derive the float.
func (e *Engine) Random(ctx context.Context) (float64, error) {
	start := time.Now()

	// unique sequence number for this request
	seq := e.counter.Add(1)

	material, contributions := e.collect(ctx)
	if contributions == 0 {
		e.observeRequest(statusErr, time.Since(start))
		return 0, ErrDegraded
	}

	// fixed concatenation order: label, entropy material, counter, timestamp
	msg := make([]byte, 0, len(derivationLabel)+len(material)+16)
	msg = append(msg, derivationLabel...)
	msg = append(msg, material...)
	msg = binary.BigEndian.AppendUint64(msg, seq)
	msg = binary.BigEndian.AppendUint64(msg, uint64(time.Now().UnixNano()))

	key := e.secrets.Current(ctx)
	value := Derive(key, msg)

	e.observeRequest(statusOk, time.Since(start))
	return value, nil
}

// collect gathers one chunk per source: cpu jitter, network jitter, OS
// random, then one region per zone in configured order. A failing source or
// empty zone is skipped, never fatal here; the caller decides what an empty
// result means.
func (e *Engine) collect(ctx context.Context) (material []byte, contributions int) {
	for _, src := range []entropy.Source{e.cpu, e.net, e.osrand} {
		chunk, err := src.Collect(ctx)
		if err != nil || len(chunk) == 0 {
			continue
		}
		material = append(material, chunk...)
		contributions++
	}

	for _, zone := range e.store.Zones() {
		region, ok := e.store.TakeOne(zone)
		if !ok {
			continue
		}
		material = append(material, region...)
		contributions++
	}

	return
}

// rotationEntropy feeds secret rotations from the live collection path plus
// the current counter value.
func (e *Engine) rotationEntropy(ctx context.Context) []byte {
	material, _ := e.collect(ctx)
	return binary.BigEndian.AppendUint64(material, e.counter.Load())
}

// Derive is the pure derivation step: keyed SHA-256 over the material, first
// 8 bytes as big-endian uint64, divided by 2^64. Identical inputs yield the
// identical float; the result is always in [0, 1).
func Derive(key, material []byte) float64 {
	mac := hmac.New(sha256.New, key)
	mac.Write(material)
	sum := mac.Sum(nil)
	return float64(binary.BigEndian.Uint64(sum[:8])) / (1 << 64)
}

// SourceNames lists the active entropy sources for the health report.
func (e *Engine) SourceNames() []string {
	return []string{e.cpu.Name(), e.net.Name(), e.osrand.Name(), "zone_image_regions"}
}

// Secrets exposes the session secret manager, e.g. for the rotation metric.
func (e *Engine) Secrets() *secret.Manager {
	return e.secrets
}
