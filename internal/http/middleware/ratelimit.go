package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter provides per-IP fixed-window rate limiting. The clock is
// injectable and the entry map is bounded, so it needs no background
// goroutine and stays deterministic under test.
type RateLimiter struct {
	mu         sync.Mutex
	entries    map[string]*window
	limit      int
	windowLen  time.Duration
	maxEntries int
	now        func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter allows limit requests per windowLen per IP, tracking at most
// maxEntries IPs. now may be nil to use the wall clock.
func NewRateLimiter(limit int, windowLen time.Duration, maxEntries int, now func() time.Time) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if windowLen <= 0 {
		windowLen = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		entries:    make(map[string]*window),
		limit:      limit,
		windowLen:  windowLen,
		maxEntries: maxEntries,
		now:        now,
	}
}

// Allow returns true if the request from ip is within the rate limit.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.entries[ip]
	if !ok || now.Sub(w.start) >= rl.windowLen {
		if !ok && len(rl.entries) >= rl.maxEntries {
			rl.evict(now)
		}
		rl.entries[ip] = &window{start: now, count: 1}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// evict drops expired windows, and if everything is still live, the oldest
// window. Called with the lock held.
func (rl *RateLimiter) evict(now time.Time) {
	var (
		oldestIP string
		oldest   time.Time
	)
	for ip, w := range rl.entries {
		if now.Sub(w.start) >= rl.windowLen {
			delete(rl.entries, ip)
			continue
		}
		if oldestIP == "" || w.start.Before(oldest) {
			oldestIP = ip
			oldest = w.start
		}
	}
	if len(rl.entries) >= rl.maxEntries && oldestIP != "" {
		delete(rl.entries, oldestIP)
	}
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests. Requests are keyed on
// r.RemoteAddr; chi's RealIP middleware runs first and folds trusted proxy
// headers into it, so client-supplied headers are never trusted here.
func RateLimit(limit int, windowLen time.Duration, maxEntries int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(limit, windowLen, maxEntries, nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port so every connection from one address shares a
// window.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
