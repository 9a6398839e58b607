// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepInterval = 5 * time.Minute

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// RateLimiter keeps one token bucket per client IP. A client may send limit
// requests at once and earns one more every window/limit.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	refill rate.Limit
	burst  int
	idle   time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter allowing limit requests per window. Stop
// ends its sweeper goroutine.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	limit = max(limit, 1)
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		refill:   rate.Every(window / time.Duration(limit)),
		burst:    limit,
		idle:     window,
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop may be called more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			rl.sweep(now)
		case <-rl.done:
			return
		}
	}
}

// reserve takes a token for ip at now. It returns zero when the request may
// proceed and otherwise how long the client has to wait.
func (rl *RateLimiter) reserve(ip string, now time.Time) time.Duration {
	rl.mu.Lock()
	v := rl.visitors[ip]
	if v == nil {
		v = &visitor{bucket: rate.NewLimiter(rl.refill, rl.burst)}
		rl.visitors[ip] = v
	}
	v.seen = now
	rl.mu.Unlock()

	res := v.bucket.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	if wait > 0 {
		res.CancelAt(now)
	}
	return wait
}

// sweep forgets visitors idle for a full window; their bucket is full again.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.seen) > rl.idle {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware answers 429 with a Retry-After once a client's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wait := rl.reserve(clientIP(r), time.Now()); wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers proxy headers over the socket address. The first
// X-Forwarded-For hop is the original client.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ri := strings.TrimSpace(r.Header.Get("X-Real-IP")); ri != "" {
		return ri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
