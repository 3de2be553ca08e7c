package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apierrors "github.com/ROM1024/2025-BEBOP/server/internal/errors"
)

// IdleTTL is how long a client stays tracked without requests. After a full
// day both budgets are refilled, so a dropped client starts exactly as it was.
const IdleTTL = 24 * time.Hour

// sweepEvery bounds how often idle clients are looked for.
const sweepEvery = time.Hour

// RateLimiter enforces an hourly and a daily request budget per client key.
// Each budget starts full and refills continuously.
type RateLimiter struct {
	mu        sync.Mutex
	limits    map[string]*clientLimits
	lastSweep time.Time
	perHour   int
	perDay    int
}

type clientLimits struct {
	hour     *rate.Limiter
	day      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter. A non-positive budget disables
// that window.
func NewRateLimiter(perHour, perDay int) *RateLimiter {
	return &RateLimiter{
		limits:  make(map[string]*clientLimits),
		perHour: perHour,
		perDay:  perDay,
	}
}

func newWindow(n int, period time.Duration) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(period/time.Duration(n)), n)
}

// getLimiter gets or creates the limiters for the given key, dropping clients
// idle for IdleTTL on the way.
func (rl *RateLimiter) getLimiter(key string, now time.Time) *clientLimits {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepEvery {
		for k, limits := range rl.limits {
			if now.Sub(limits.lastSeen) >= IdleTTL {
				delete(rl.limits, k)
			}
		}
		rl.lastSweep = now
	}

	limits, ok := rl.limits[key]
	if !ok {
		limits = &clientLimits{
			hour: newWindow(rl.perHour, time.Hour),
			day:  newWindow(rl.perDay, 24*time.Hour),
		}
		rl.limits[key] = limits
	}
	if now.After(limits.lastSeen) {
		limits.lastSeen = now
	}
	return limits
}

// Allow checks if a request is allowed for the given key. A request denied
// by one window does not spend the budget of the other.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowAt(key, time.Now())
}

// AllowAt is Allow evaluated at now.
func (rl *RateLimiter) AllowAt(key string, now time.Time) bool {
	limits := rl.getLimiter(key, now)

	hour := limits.hour.ReserveN(now, 1)
	if !hour.OK() || hour.DelayFrom(now) > 0 {
		hour.CancelAt(now)
		return false
	}
	day := limits.day.ReserveN(now, 1)
	if !day.OK() || day.DelayFrom(now) > 0 {
		day.CancelAt(now)
		hour.CancelAt(now)
		return false
	}
	return true
}

// Middleware rejects requests over budget with 429, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perHour))
				return apierrors.RateLimitExceeded("too many requests, try again later")
			}
			return next(c)
		}
	}
}
