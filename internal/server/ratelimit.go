package server

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxTrackedIPs = 10000
	staleAfter    = 10 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter is a token bucket per client IP for the one-shot API.
type ipRateLimiter struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	items map[string]*ipLimiter
	now   func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		items: make(map[string]*ipLimiter),
		now:   time.Now,
	}
}

// Allow reports whether ip may make another request now.
func (l *ipRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	item, ok := l.items[ip]
	if !ok {
		if len(l.items) >= maxTrackedIPs {
			l.evictLocked(now)
		}
		item = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.items[ip] = item
	}
	item.lastSeen = now

	return item.limiter.AllowN(now, 1)
}

// evictLocked drops stale entries, or everything when none are stale.
func (l *ipRateLimiter) evictLocked(now time.Time) {
	for ip, item := range l.items {
		if now.Sub(item.lastSeen) > staleAfter {
			delete(l.items, ip)
		}
	}
	if len(l.items) >= maxTrackedIPs {
		l.items = make(map[string]*ipLimiter)
	}
}

func (l *ipRateLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSONResponse(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}
