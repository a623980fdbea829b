package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := NewRateLimiter(10, time.Minute, 100, clock.now)

	for i := 0; i < 10; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("11th request in the window should be rejected")
	}
}

func TestRateLimiterWindowRollover(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := NewRateLimiter(2, time.Minute, 100, clock.now)

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("ip") {
		t.Fatal("third request should be rejected")
	}

	clock.advance(time.Minute)
	if !rl.Allow("ip") {
		t.Fatal("request in a fresh window should pass")
	}
}

func TestRateLimiterPerIPIsolation(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := NewRateLimiter(1, time.Minute, 100, clock.now)

	if !rl.Allow("a") {
		t.Fatal("first request from a should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request from a should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("request from b must not be affected by a's limit")
	}
}

func TestRateLimiterBoundedEntries(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := NewRateLimiter(5, time.Minute, 3, clock.now)

	for i := 0; i < 10; i++ {
		rl.Allow(fmt.Sprintf("ip-%d", i))
		clock.advance(time.Second)
	}

	rl.mu.Lock()
	size := len(rl.entries)
	rl.mu.Unlock()
	if size > 3 {
		t.Fatalf("entry map grew to %d, cap is 3", size)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(1, time.Minute, 100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "9.9.9.9:41234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
}

func TestRateLimitMiddlewareIgnoresClientHeaders(t *testing.T) {
	handler := RateLimit(1, time.Minute, 100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Rotating X-Real-Ip must not dodge the limit: the key is the
	// connection's address, not a client-supplied header.
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "9.9.9.9:41234"
		req.Header.Set("X-Real-Ip", fmt.Sprintf("10.0.0.%d", i))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: got %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestRateLimitMiddlewareSharesWindowAcrossPorts(t *testing.T) {
	handler := RateLimit(1, time.Minute, 100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = fmt.Sprintf("9.9.9.9:%d", 40000+i)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: got %d, want %d", i+1, rec.Code, want)
		}
	}
}
