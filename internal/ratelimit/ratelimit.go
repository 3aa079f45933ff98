// Package ratelimit provides a per-key token bucket limiter for inbound
// requests. Keys that stay idle are evicted.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages one token bucket per key.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing rps requests per second per key with the
// given burst. A non-positive rps disables limiting.
func New(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if rps <= 0 {
		l.limit = rate.Inf
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Evict drops keys idle for longer than the idle TTL.
func (l *Limiter) Evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idleTTL)
	for k, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// Stop shuts down the eviction goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) cleanup() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.Evict()
		}
	}
}

// Middleware rejects requests over the limit, keyed by client IP, by calling
// onLimited instead of next.
func (l *Limiter) Middleware(onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the host part of RemoteAddr. chi's RealIP middleware rewrites
// RemoteAddr from proxy headers before this runs.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
