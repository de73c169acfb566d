package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-client sliding-window request limiter. Each client keeps
// the ordered timestamps of its admitted requests inside the trailing
// window; a request is admitted only while fewer than maxRequests remain
// after expiry, and the timestamp is recorded only on admission.
//
// Distinct clients are serialized on their own lock so they do not contend;
// the outer lock guards only map access. Idle client entries are never
// evicted, so memory grows with the number of distinct clients seen.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	clients map[string]*clientWindow

	// now is swappable for tests.
	now func() time.Time
}

type clientWindow struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// New creates a limiter admitting at most maxRequests per client within any
// trailing window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientWindow),
		now:         time.Now,
	}
}

// Allow reports whether a request from clientID is admitted, recording it if
// so.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	cw, ok := l.clients[clientID]
	if !ok {
		cw = &clientWindow{}
		l.clients[clientID] = cw
	}
	l.mu.Unlock()

	cw.mu.Lock()
	defer cw.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := cw.timestamps[:0]
	for _, ts := range cw.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	cw.timestamps = kept

	if len(cw.timestamps) >= l.maxRequests {
		return false
	}

	cw.timestamps = append(cw.timestamps, now)
	return true
}
