package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// KeyPrefix namespaces counter keys in the store
	KeyPrefix string
}

// CounterStore increments and returns a windowed request counter. Injected
// so the limiter can run against Redis in deployment and an in-process map
// in tests or single-node setups, without touching handler logic.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}

// RedisCounterStore backs the limiter with Redis
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Incr atomically increments the key and refreshes its expiry
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := s.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incrCmd.Val()), nil
}

// MemoryCounterStore is a mutex-guarded in-process counter map
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]*memoryCounter)}
}

// Incr increments the key's counter, resetting it when the window lapsed
func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.expiresAt) {
		counter = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++

	// Opportunistically drop stale entries so the map stays bounded.
	if len(s.counters) > 10000 {
		for k, c := range s.counters {
			if now.After(c.expiresAt) {
				delete(s.counters, k)
			}
		}
	}

	return counter.count, nil
}

// RateLimiter enforces a fixed-window request limit per network identifier
type RateLimiter struct {
	store  CounterStore
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(store CounterStore, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting
// keyed by the caller's network identifier
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := clientKey(c)

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), identifier)
		if err != nil {
			// Fail open on store errors rather than blocking traffic
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("Too many requests. Please wait %d seconds and try again.", retryAfter),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsAllowed checks if a request from the given identifier is allowed.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, identifier, windowStart.Unix())

	count, err := rl.store.Incr(ctx, key, rl.config.Window)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}

// clientKey derives the limiter key from the forwarded address, falling back
// to the peer address so direct callers get per-peer budgets instead of one
// collective one. Only callers with neither identifier share the "unknown"
// bucket.
func clientKey(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
