// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimiterBuckets(t *testing.T) {
	rl := NewRateLimiter(3, 3*time.Second)
	defer rl.Stop()
	now := time.Now()

	for i := range 3 {
		if wait := rl.reserve("10.0.0.1", now); wait != 0 {
			t.Fatalf("attempt %d waited %v", i+1, wait)
		}
	}
	wait := rl.reserve("10.0.0.1", now)
	if wait <= 0 || wait > time.Second {
		t.Errorf("fourth attempt wait = %v, want (0, 1s]", wait)
	}
	if wait := rl.reserve("10.0.0.2", now); wait != 0 {
		t.Errorf("second client limited: %v", wait)
	}

	// A refused attempt does not consume the next token.
	if wait := rl.reserve("10.0.0.1", now.Add(time.Second)); wait != 0 {
		t.Errorf("after refill wait = %v", wait)
	}
	if wait := rl.reserve("10.0.0.1", now.Add(time.Second)); wait == 0 {
		t.Error("only one token should have refilled")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	post := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for range 2 {
		if rec := post("192.0.2.7:40000"); rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	}

	rec := post("192.0.2.7:40001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	secs, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || secs < 1 || secs > 30 {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	if rec := post("192.0.2.8:40000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()
	start := time.Now()

	rl.reserve("stale", start)
	rl.reserve("active", start)
	rl.reserve("active", start.Add(45*time.Second))

	rl.sweep(start.Add(90 * time.Second))
	if n := rl.tracked(); n != 1 {
		t.Fatalf("tracked = %d after first sweep, want 1", n)
	}
	rl.mu.Lock()
	_, ok := rl.visitors["active"]
	rl.mu.Unlock()
	if !ok {
		t.Error("active visitor swept")
	}

	rl.sweep(start.Add(time.Hour))
	if n := rl.tracked(); n != 0 {
		t.Errorf("tracked = %d after idle hour", n)
	}
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	rl := NewRateLimiter(0, time.Second)
	if rl.burst != 1 {
		t.Errorf("burst = %d, want limit clamped to 1", rl.burst)
	}
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		forward  string
		realIP   string
		expected string
	}{
		{"socket", "198.51.100.4:5555", "", "", "198.51.100.4"},
		{"socket ipv6", "[2001:db8::9]:443", "", "", "2001:db8::9"},
		{"socket without port", "198.51.100.4", "", "", "198.51.100.4"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.5, 10.1.1.1", "", "203.0.113.5"},
		{"forwarded wins over real ip", "10.0.0.1:80", "203.0.113.5", "203.0.113.6", "203.0.113.5"},
		{"real ip", "10.0.0.1:80", "", " 203.0.113.6 ", "203.0.113.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forward != "" {
				req.Header.Set("X-Forwarded-For", tt.forward)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(req); got != tt.expected {
				t.Errorf("clientIP = %q, want %q", got, tt.expected)
			}
		})
	}
}
