package server

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig holds rate limiter configuration. RPS <= 0 disables
// the limiter.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

type bucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

func newBucket(rps, burst int) *bucket {
	if burst < 1 {
		burst = rps
	}
	return &bucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: float64(rps),
		lastRefill: time.Now(),
	}
}

func (b *bucket) allow() bool {
	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// NewRateLimitMiddleware returns a per-IP token-bucket rate limiter.
// Probe endpoints are exempt.
func NewRateLimitMiddleware(cfg RateLimitConfig) fiber.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	// Drop buckets for IPs that have gone quiet.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			now := time.Now()
			for ip, b := range buckets {
				if now.Sub(b.lastRefill) > 10*time.Minute {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		ip := c.IP()
		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = newBucket(cfg.RPS, cfg.Burst)
			buckets[ip] = b
		}
		allowed := b.allow()
		mu.Unlock()

		if !allowed {
			return errorResponse(c, fiber.StatusTooManyRequests, "Too many requests")
		}
		return c.Next()
	}
}
