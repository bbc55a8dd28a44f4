// Package ratelimit provides an injected per-key rate limiter used to
// pace outbound API calls. The limiter map is shared mutable state
// touched by concurrent batch workers, so every access goes through the
// mutex.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per key. Constructor-scoped: callers own
// the lifecycle, nothing is process-global.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*entry
	rps      rate.Limit
	burst    int
	lastSeen time.Duration
	now      func() time.Time
}

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// New creates a limiter allowing rps events per second with the given
// burst per key. Keys idle longer than lastSeen are dropped by Prune.
func New(rps float64, burst int, lastSeen time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	if lastSeen <= 0 {
		lastSeen = time.Hour
	}
	return &Limiter{
		buckets:  make(map[string]*entry),
		rps:      rate.Limit(rps),
		burst:    burst,
		lastSeen: lastSeen,
		now:      time.Now,
	}
}

// Allow reports whether the event for key may proceed now, creating the
// key's bucket on first sight.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = e
	}
	e.seen = l.now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Wait blocks until the event for key may proceed or ctx is done,
// creating the key's bucket on first sight.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = e
	}
	e.seen = l.now()
	l.mu.Unlock()
	return e.limiter.Wait(ctx)
}

// Prune drops buckets not seen within the idle window and returns how
// many were removed.
func (l *Limiter) Prune() int {
	cutoff := l.now().Add(-l.lastSeen)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.buckets {
		if e.seen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
