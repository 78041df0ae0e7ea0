// Per-IP rate limiting for the admin control plane.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands each client IP its own token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows n requests per window per IP, with bursts of up
// to n.
func NewRateLimiter(n int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(n)),
		burst:    n,
	}
}

// Allow reports whether the IP may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.get(ip).Allow()
}

// RetryAfter returns how many seconds until the IP has a token again.
func (rl *RateLimiter) RetryAfter(ip string) int {
	r := rl.get(ip).Reserve()
	d := r.Delay()
	r.Cancel()
	return int(d.Seconds()) + 1
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup forgets IPs not seen for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.limiters {
		if time.Since(v.lastSeen) > idle {
			delete(rl.limiters, ip)
		}
	}
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP prefers the first X-Forwarded-For hop for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
