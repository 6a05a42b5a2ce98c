package iamapi

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Abraxas-365/portal/pkg/iam"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPRateLimiter throttles public endpoints per client IP. Idle entries are
// evicted after ttl.
type IPRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(perSecond float64, burst int, ttl time.Duration) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether ip may make another request now
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.ttl {
		for key, l := range rl.limiters {
			if now.Sub(l.lastAccess) > rl.ttl {
				delete(rl.limiters, key)
			}
		}
		rl.lastSweep = now
	}

	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastAccess = now
	return l.limiter.AllowN(now, 1)
}

// Len is the number of tracked IPs
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware rejects throttled callers with RESOURCE_EXHAUSTED and a
// Retry-After header.
func (rl *IPRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.Allow(c.IP()) {
			return c.Next()
		}

		retryAfter := 1
		if rl.limit > 0 {
			retryAfter = int(math.Max(1, math.Ceil(1/float64(rl.limit))))
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		logx.WithFields(logx.Fields{"ip": c.IP(), "path": c.Path()}).Warn("rate limit exceeded")
		return iam.ErrRateLimited()
	}
}
