package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// unreachableRedis returns a client whose every command fails fast, which
// exercises the fail-open path without a live server.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		ReadTimeout:     50 * time.Millisecond,
		WriteTimeout:    50 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     50 * time.Millisecond,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Second,
	})
}

func serveLimited(t *testing.T, cfg RateLimitConfig) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(unreachableRedis(), cfg))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	return w.Code
}

func TestRateLimitZeroWindowFallsBackToDefault(t *testing.T) {
	if code := serveLimited(t, RateLimitConfig{Limit: 5, Window: 0}); code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimitNegativeWindowFallsBackToDefault(t *testing.T) {
	if code := serveLimited(t, RateLimitConfig{Limit: 5, Window: -time.Second}); code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimitFailsOpenWhenRedisUnavailable(t *testing.T) {
	if code := serveLimited(t, RateLimitConfig{Limit: 5, Window: time.Minute}); code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
}
