package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// clientLimiter tracks one client's token bucket and when it was last used
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client request rate keyed by remote IP.
// Idle entries are dropped by a background sweep.
type RateLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per client
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 300
	}
	burst := requestsPerMinute / 10
	if burst < 5 {
		burst = 5
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether the client identified by key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	client, exists := rl.clients[key]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = time.Now()
	rl.mu.Unlock()

	return client.limiter.Allow()
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for key, client := range rl.clients {
			if client.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit returns a middleware limiting each remote IP to the configured
// request rate. Set rate_limit.enabled to false to disable it.
func RateLimit(cfg *viper.Viper) echo.MiddlewareFunc {
	if !cfg.GetBool("rate_limit.enabled") {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	limiter := NewRateLimiter(cfg.GetInt("rate_limit.requests_per_minute"))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}
			return next(c)
		}
	}
}
