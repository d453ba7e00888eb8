package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/deskline/helpdesk/internal/observability"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

const (
	visitorTTL       = 10 * time.Minute
	cleanupThreshold = 5000
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Idle buckets are evicted
// during lookups.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
	now      func() time.Time
}

// NewRateLimiter returns nil when rps is not positive, which disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= cleanupThreshold {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler limits by authenticated user when known, by client IP otherwise.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil {
			return c.Next()
		}
		if !rl.limiter(rateKey(c)).Allow() {
			return apperrors.NewRateLimited("rate limit exceeded")
		}
		return c.Next()
	}
}

func rateKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals(observability.UserIDLocal).(string); ok && userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}
