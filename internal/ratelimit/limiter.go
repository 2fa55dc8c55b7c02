// Package ratelimit provides per-contributor rate limiting for write endpoints.
// Limits are enforced with in-memory token buckets keyed by contributor ID,
// so a single noisy contributor cannot flood votes or reviews.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	WritesPerMinute int // token refill rate per key
	Burst           int // token bucket capacity
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		WritesPerMinute: 30,
		Burst:           10,
	}
}

// entry pairs a token bucket with its last use for idle cleanup
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter provides keyed token-bucket rate limiting with idle cleanup.
type Limiter struct {
	config  Config
	log     zerolog.Logger
	mu      sync.Mutex
	entries map[string]*entry
	stop    chan struct{}
}

// New creates a new keyed limiter and starts its cleanup loop.
// Call Close when done to stop the cleanup goroutine.
func New(config Config, log zerolog.Logger) *Limiter {
	if config.WritesPerMinute <= 0 {
		config.WritesPerMinute = DefaultConfig().WritesPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = DefaultConfig().Burst
	}

	l := &Limiter{
		config:  config,
		log:     log.With().Str("component", "ratelimit").Logger(),
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow reports whether the given key may perform a write right now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(float64(l.config.WritesPerMinute)/60.0), l.config.Burst),
		}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}

// cleanupLoop drops buckets idle for more than 10 minutes. Without this the
// entries map grows unbounded with one bucket per contributor ever seen.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			removed := 0

			l.mu.Lock()
			for key, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, key)
					removed++
				}
			}
			remaining := len(l.entries)
			l.mu.Unlock()

			if removed > 0 {
				l.log.Debug().
					Int("removed", removed).
					Int("remaining", remaining).
					Msg("Cleaned up idle rate limit buckets")
			}
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits requests by the
// X-Contributor-ID header, falling back to the remote address for anonymous
// requests. Intended for write routes only - reads are never limited.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Contributor-ID")
			if key == "" {
				key = r.RemoteAddr
			}

			if !l.Allow(key) {
				l.log.Warn().Str("key", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
