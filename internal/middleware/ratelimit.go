// ratelimit.go implements a per-IP token bucket limiter for the form
// endpoints that reach the identity provider (login, register).

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/keyxmakerx/costpilot/internal/apperror"
)

// limiterIdle is how long an IP's bucket is kept after its last request.
const limiterIdle = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters holds one token bucket per client IP.
type ipLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*ipLimiter
	now     func() time.Time
}

func newIPLimiters(maxRequests int, window time.Duration) *ipLimiters {
	return &ipLimiters{
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
		entries: make(map[string]*ipLimiter),
		now:     time.Now,
	}
}

// allow reports whether ip may make a request now. Idle buckets are pruned
// on the way so the map stays bounded by recently active clients.
func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > limiterIdle {
			delete(l.entries, key)
		}
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit returns middleware that allows maxRequests per IP within window
// (refilling continuously) and rejects the excess with 429.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	limiters := newIPLimiters(maxRequests, window)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiters.allow(c.RealIP()) {
				return &apperror.AppError{
					Code:    http.StatusTooManyRequests,
					Type:    "rate_limited",
					Message: "Too many attempts. Please wait a moment and try again.",
				}
			}
			return next(c)
		}
	}
}
