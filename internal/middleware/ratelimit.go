package middleware

import (
	"net"
	"net/http"
	"sync"

	"github.com/campuslink/campuslink-be/internal/http/respond"
	"golang.org/x/time/rate"
)

// RateLimiter tracks a token bucket per client address. It is meant
// for the login endpoint, where repeated failures are a brute-force
// signal.
//
// TODO: evict limiters for addresses idle longer than a few minutes.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

// NewRateLimiter allows perSec sustained requests with the given burst
// for each client address.
func NewRateLimiter(perSec rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rate.Limiter),
		perSec:  perSec,
		burst:   burst,
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.clients[key]
	if !ok {
		limiter = rate.NewLimiter(l.perSec, l.burst)
		l.clients[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Limit wraps a handler, answering 429 once a client exhausts its
// bucket.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.Allow(host) {
			respond.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
