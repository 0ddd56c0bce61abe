package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Counter counts hits per key within the current fixed wall-clock window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter shares windows across instances.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryCounter is the process-local fallback when redis is not configured.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	seen   map[string]time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		counts: make(map[string]int64),
		seen:   make(map[string]time.Time),
	}
}

func (c *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.counts[key]++
	c.seen[key] = now

	// Old window keys never come back; sweep them opportunistically.
	if len(c.seen) > 1024 {
		cutoff := now.Add(-2 * window)
		for k, t := range c.seen {
			if t.Before(cutoff) {
				delete(c.seen, k)
				delete(c.counts, k)
			}
		}
	}

	return c.counts[key], nil
}

// RateLimit rejects requests past limit-per-window for a client address.
// The window boundary is wall-clock aligned: the count resets when the
// window rolls over, not a sliding interval after the first hit.
func RateLimit(counter Counter, limit int, window time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		windowStart := time.Now().Truncate(window).Unix()
		key := fmt.Sprintf("rl:%s:%s:%d", c.FullPath(), c.ClientIP(), windowStart)

		count, err := counter.Incr(c.Request.Context(), key, window)
		if err != nil {
			// Counting backend trouble must not take the endpoint down.
			log.Warn().Err(err).Msg("rate limit counter unavailable")
			c.Next()
			return
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Muitas requisições. Tente novamente em instantes.",
			})
			return
		}

		c.Next()
	}
}
