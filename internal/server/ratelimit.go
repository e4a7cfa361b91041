package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"skillmatch/internal/errors"

	"golang.org/x/time/rate"
)

const defaultEvictionAge = 10 * time.Minute

// RateLimiter hands out a token bucket per key (client IP or API key) and
// evicts buckets that have been idle longer than the eviction age.
type RateLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*rate.Limiter
	lastSeen map[string]time.Time

	perSecond rate.Limit
	burst     int
	evictAge  time.Duration

	done   chan struct{}
	logger *errors.Logger
}

// NewRateLimiter builds a limiter allowing requestsPerMin sustained requests
// with the given burst capacity. evictAfter bounds how long an idle key keeps
// its bucket; zero or negative falls back to ten minutes.
func NewRateLimiter(requestsPerMin int, evictAfter time.Duration, burstCapacity int, logger *errors.Logger) *RateLimiter {
	if evictAfter <= 0 {
		evictAfter = defaultEvictionAge
	}

	rl := &RateLimiter{
		buckets:   make(map[string]*rate.Limiter),
		lastSeen:  make(map[string]time.Time),
		perSecond: rate.Limit(float64(requestsPerMin) / 60.0),
		burst:     burstCapacity,
		evictAge:  evictAfter,
		done:      make(chan struct{}),
		logger:    logger,
	}

	go rl.evictLoop()
	return rl
}

// Allow reports whether a request under the given key may proceed. It never
// blocks; a denied request simply gets false.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.bucketFor(key).Allow()
}

func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(rl.perSecond, rl.burst)
		rl.buckets[key] = bucket
	}
	rl.lastSeen[key] = time.Now()
	return bucket
}

// GetStats returns a snapshot of the limiter state for the stats endpoint.
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return map[string]any{
		"active_limiters": len(rl.buckets),
		"rate_per_second": float64(rl.perSecond),
		"rate_per_minute": float64(rl.perSecond) * 60.0,
		"burst_capacity":  rl.burst,
		"eviction_age":    rl.evictAge.String(),
	}
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.evictAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.evictAge)
	evicted := 0
	for key, seen := range rl.lastSeen {
		if seen.Before(cutoff) {
			delete(rl.buckets, key)
			delete(rl.lastSeen, key)
			evicted++
		}
	}

	if rl.logger != nil && evicted > 0 {
		rl.logger.Debug("Evicted idle rate limit buckets",
			"evicted", evicted, "remaining", len(rl.buckets))
	}
}

// Close stops the eviction goroutine.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// rateLimitMiddleware rejects requests whose key bucket is exhausted with a
// 429. When rate limiting is disabled it passes handlers through untouched.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(key) {
				s.Logger.Info("Rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"client_ip", clientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// rateLimitKey picks the bucket key for a request. API-key buckets take
// precedence over per-IP buckets when both are enabled; an empty key means
// the request is not rate limited.
func rateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				apiKey = after
			}
		}
		if apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + clientIP(r)
	}

	return ""
}

// clientIP resolves the originating client address, trusting proxy headers
// (X-Forwarded-For, then X-Real-IP) before falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for ip := range strings.SplitSeq(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
