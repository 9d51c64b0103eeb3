package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Gate is the idempotent debounce gate in front of the pipeline. It
// collapses the event bursts editors produce into at most one pipeline
// run per file state.
//
// State is held purely in memory: a restart forgets everything and the
// next event for any file is processed again.
type Gate struct {
	ttl time.Duration

	mu        sync.Mutex
	processed map[string]time.Time
	inFlight  map[string]bool
}

// NewGate creates a gate whose processed fingerprints expire after ttl.
func NewGate(ttl time.Duration) *Gate {
	return &Gate{
		ttl:       ttl,
		processed: make(map[string]time.Time),
		inFlight:  make(map[string]bool),
	}
}

// Acquire admits one pipeline run for the file, or explains why not.
//
// A fingerprint processed within the TTL returns ErrRecentlyProcessed.
// A path with a run already in flight returns ErrInFlight. On success
// the caller holds an exclusive lease on the path and must release it.
func (g *Gate) Acquire(path string) (*Lease, error) {
	fp := domain.FingerprintOf(path)
	key := fp.Key()
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)

	if at, ok := g.processed[key]; ok && now.Sub(at) < g.ttl {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecentlyProcessed, path)
	}
	if g.inFlight[path] {
		return nil, fmt.Errorf("%w: %s", domain.ErrInFlight, path)
	}

	g.inFlight[path] = true
	return &Lease{gate: g, path: path, fingerprint: fp}, nil
}

// pruneLocked drops expired fingerprints. Caller holds the mutex.
func (g *Gate) pruneLocked(now time.Time) {
	for key, at := range g.processed {
		if now.Sub(at) >= g.ttl {
			delete(g.processed, key)
		}
	}
}

// Lease is an exclusive claim on one file path for the duration of a
// pipeline run.
type Lease struct {
	gate        *Gate
	path        string
	fingerprint domain.Fingerprint

	once sync.Once
}

// Fingerprint returns the file state captured at acquisition.
func (l *Lease) Fingerprint() domain.Fingerprint {
	return l.fingerprint
}

// MarkProcessed records fp so re-deliveries of the same file state are
// rejected until the TTL expires. Callers pass the fingerprint taken
// after the stabilisation wait, which can differ from the one captured
// at acquisition when the file settled into a new state meanwhile. A
// run abandoned before completion must not call this, so the next
// event retries the file.
func (l *Lease) MarkProcessed(fp domain.Fingerprint) {
	l.gate.mu.Lock()
	defer l.gate.mu.Unlock()
	l.gate.processed[fp.Key()] = time.Now()
}

// Release frees the path for the next run. Safe to call more than
// once; typically deferred immediately after Acquire.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.gate.mu.Lock()
		defer l.gate.mu.Unlock()
		delete(l.gate.inFlight, l.path)
	})
}
