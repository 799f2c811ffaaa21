package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"promptvault/internal/config"
	"promptvault/internal/metrics"
)

const (
	sweepInterval = time.Minute
	bucketMaxIdle = 3 * time.Minute
)

// bucket is one client's token balance. Tokens refill at the configured
// rate up to the burst ceiling; each request spends one.
type bucket struct {
	tokens float64
	seen   time.Time
}

type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64

	now func() time.Time // test hook
}

// NewRateLimiter builds the per-client throttle from the server config
// (RATE_LIMIT_RPS / RATE_LIMIT_BURST). Idle buckets are swept in the
// background so the map does not grow with every client ever seen.
func NewRateLimiter(cfg config.ServerConfig) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(cfg.RateLimitRPS),
		burst:   float64(cfg.RateLimitBurst),
		now:     time.Now,
	}
	go rl.sweep()
	return rl
}

// allow spends one token from the client's bucket, refilling first.
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Limit rejects clients over their budget with a 429. The client key is
// the remote address, which RealIP has already rewritten to the real
// client IP when the request came through a proxy.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			metrics.Global().RateLimited.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) sweep() {
	for {
		time.Sleep(sweepInterval)
		rl.mu.Lock()
		now := rl.now()
		for key, b := range rl.buckets {
			if now.Sub(b.seen) > bucketMaxIdle {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
