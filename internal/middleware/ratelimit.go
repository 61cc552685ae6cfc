package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	// Limit is the request budget per window.
	Limit int
	// Window is the window length.
	Window time.Duration
}

// RateLimit returns a per-IP fixed-window limiter backed by redis so the
// budget holds across console replicas. On redis failure the request is
// allowed; losing rate limiting is better than losing the console.
func RateLimit(redisClient *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	// A non-positive window would divide by zero on every request.
	if cfg.Window <= 0 {
		log.Printf("[RateLimit] Invalid window %v, using 60s", cfg.Window)
		cfg.Window = 60 * time.Second
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		window := time.Now().Unix() / int64(cfg.Window.Seconds())
		key := fmt.Sprintf("fleetview:ratelimit:%s:%d", c.ClientIP(), window)

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RateLimit] Redis error, allowing request: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			redisClient.Expire(ctx, key, cfg.Window)
		}

		remaining := int64(cfg.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
