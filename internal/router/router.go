package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaloriapp/backend/internal/api"
	"github.com/kaloriapp/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	analyzeHandler *api.AnalyzeHandler,
	authHandler *api.AuthHandler,
	foodLogHandler *api.FoodLogHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes: analysis (rate limited inside the handler registration)
	// and auth.
	analyzeHandler.RegisterRoutes(v1)
	authHandler.RegisterRoutes(v1)

	// JWT-protected food log and dashboard routes.
	foodLogHandler.RegisterRoutes(v1)

	return router
}
