package router

import (
	"github.com/gin-gonic/gin"

	"github.com/campuspulse/social-pulse/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))

	statusHandler := handler.NewStatusHandler(deps)

	r.GET("/health", statusHandler.GetHealth)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/stats", statusHandler.GetStats)
		v1.GET("/events/:event_id/matches", statusHandler.GetEventMatches)
	}

	return r
}
