package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type windowCounter struct {
	start time.Time
	count int
}

// SimpleRateLimit is an in-process fixed-window limiter keyed by client IP.
// RedisRateLimit falls back to it when no Redis client is configured, so a
// missing cache never leaves the API unthrottled.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	counters := make(map[string]*windowCounter)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		wc, ok := counters[ip]
		if !ok || now.Sub(wc.start) > window {
			counters[ip] = &windowCounter{start: now, count: 1}
			mu.Unlock()
			c.Next()
			return
		}
		wc.count++
		blocked := wc.count > maxRequests
		mu.Unlock()

		if blocked {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
