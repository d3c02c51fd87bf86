package api

import (
	"AIAvatar/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// askRate admits a short burst of questions, then one per second, mirroring
// the live-chat throttle.
const (
	askRatePerSecond = 1.0
	askBurst         = 3
)

// RegisterRoutes registers all routes for the avatar service.
func RegisterRoutes(router *gin.Engine, api *API) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/ask", RateLimit(ratelimiter.NewTokenBucket(askRatePerSecond, askBurst)), api.AskHandler)
		v1.GET("/result", api.ResultHandler)
		v1.GET("/audio/:ref", api.AudioHandler)
		v1.GET("/history", api.HistoryHandler)
		v1.DELETE("/sessions/:id", api.EndSessionHandler)
	}

	router.GET("/healthz", api.HealthHandler)
}
