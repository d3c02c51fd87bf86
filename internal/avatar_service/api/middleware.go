package api

import (
	"net/http"

	"AIAvatar/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimit rejects submissions once the limiter runs dry. Polling routes are
// never limited; only question submission costs model and synthesis calls.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many questions, slow down"})
			return
		}
		c.Next()
	}
}
