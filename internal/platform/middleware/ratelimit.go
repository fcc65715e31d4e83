package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client throttling of credential endpoints.
type RateLimitConfig struct {
	// PerMinute is the sustained number of requests one client may make.
	PerMinute int
	// Burst is how many requests a client may make back to back.
	Burst int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one bucket per client address.
type rateLimiterStore struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	return &rateLimiterStore{cfg: cfg, buckets: make(map[string]*clientBucket)}
}

// take consumes one token for key. When the bucket is empty it reports how
// long the client must wait instead.
func (s *rateLimiterStore) take(key string) (remaining int, wait time.Duration, ok bool) {
	now := s.cfg.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)
	b, found := s.buckets[key]
	if !found {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(s.cfg.PerMinute)/60), s.cfg.Burst),
		}
		s.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return 0, d, false
	}
	return int(b.limiter.TokensAt(now)), 0, true
}

// sweep evicts idle buckets at most once per IdleTTL. Callers hold mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.cfg.IdleTTL {
		return
	}
	s.lastSweep = now
	for k, b := range s.buckets {
		if now.Sub(b.lastSeen) >= s.cfg.IdleTTL {
			delete(s.buckets, k)
		}
	}
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit throttles requests per client IP with a token bucket. Every
// route the returned middleware is attached to shares the same budget.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newRateLimiterStore(cfg.withDefaults()))
}

func rateLimit(store *rateLimiterStore) echo.MiddlewareFunc {
	limit := strconv.Itoa(store.cfg.PerMinute)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			remaining, wait, ok := store.take(c.RealIP())

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
			}
			return next(c)
		}
	}
}
