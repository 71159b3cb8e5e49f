package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"truthlens/internal/services/classifier"
)

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// RateLimit returns middleware that limits each client IP to cfg. A
// non-positive RequestsPerMinute disables limiting.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := NewTokenBucketLimiter(cfg.RequestsPerMinute, cfg.BurstSize)
	retryAfter := strconv.Itoa(max(int(time.Minute/time.Duration(cfg.RequestsPerMinute)/time.Second), 1))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIP(r)
			if !limiter.Allow(clientIP) {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, classifier.ErrCodeRateLimit, "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on the connection address without its port. Proxy headers
// are honored only through chi's RealIP, which runs earlier and rewrites
// RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// TokenBucketLimiter is an in-memory per-key limiter. It is safe for
// concurrent use; state is not shared between processes.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	rate    float64 // tokens per second
	burst   float64
	clients map[string]*bucket
	now     func() time.Time
	lastGC  time.Time
	idleTTL time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

func NewTokenBucketLimiter(requestsPerMinute, burstSize int) *TokenBucketLimiter {
	if burstSize <= 0 {
		burstSize = 1
	}
	return &TokenBucketLimiter{
		rate:    float64(requestsPerMinute) / 60,
		burst:   float64(burstSize),
		clients: make(map[string]*bucket),
		now:     time.Now,
		idleTTL: 10 * time.Minute,
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *TokenBucketLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastRefill: now}
		l.clients[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*l.rate, l.burst)
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (l *TokenBucketLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastGC) < l.idleTTL {
		return
	}
	for key, b := range l.clients {
		if now.Sub(b.lastRefill) > l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastGC = now
}
