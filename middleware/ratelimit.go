package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	gocache "github.com/patrickmn/go-cache"
)

// WindowLimiter counts requests per key over a rolling window. Entries
// expire through the underlying TTL cache, so idle keys are pruned instead
// of accumulating per client IP.
type WindowLimiter struct {
	max   int
	store *gocache.Cache
	mu    sync.Mutex
}

func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		max:   max,
		store: gocache.New(window, 2*window),
	}
}

func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.store.Get(key)
	if !ok {
		l.store.Set(key, 1, gocache.DefaultExpiration)
		return true
	}

	count := v.(int)
	if count >= l.max {
		return false
	}

	// IncrementInt keeps the entry's original expiry, so the window does not
	// slide forward on every request.
	if _, err := l.store.IncrementInt(key, 1); err != nil {
		l.store.Set(key, 1, gocache.DefaultExpiration)
	}
	return true
}

// LoginRateLimiter throttles credential guessing on the login route.
func LoginRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many login attempts. Please try again later.",
			})
		},
	})
}
