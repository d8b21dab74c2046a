package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kaloriapp/backend/config"
	"github.com/kaloriapp/backend/internal/api"
	"github.com/kaloriapp/backend/internal/middleware"
	"github.com/kaloriapp/backend/internal/router"
	"github.com/kaloriapp/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	engine *gin.Engine
	http   *http.Server
	cfg    *config.Config
}

// New wires services, handlers and routes into a server instance
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config) *Server {
	authService := service.NewAuthService(db, cfg.JWTSecret)
	visionService := service.NewVisionService(cfg)
	foodLogService := service.NewFoodLogService(db, redisClient)

	var photoService service.IPhotoService
	if s3Config != nil {
		photoService = service.NewPhotoService(s3Config)
	}

	// Redis backs the per-IP limiter when available; otherwise fall back
	// to the in-process store.
	var store middleware.CounterStore
	if redisClient != nil {
		store = middleware.NewRedisCounterStore(redisClient)
	} else {
		log.Printf("No Redis client, using in-memory rate limit counters")
		store = middleware.NewMemoryCounterStore()
	}
	limiter := middleware.NewRateLimiter(store, middleware.RateLimitConfig{
		Window:    cfg.RateLimitWindow,
		Limit:     cfg.RateLimitRequests,
		KeyPrefix: "rate_limit:analyze",
	})

	analyzeHandler := api.NewAnalyzeHandler(visionService, limiter, cfg.DailyFreeAnalyses, config.IsProduction())
	authHandler := api.NewAuthHandler(authService)
	foodLogHandler := api.NewFoodLogHandler(foodLogService, photoService, authService, cfg.DailyFreeAnalyses)

	engine := router.SetupRouter(analyzeHandler, authHandler, foodLogHandler)

	return &Server{
		engine: engine,
		cfg:    cfg,
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
			Handler: engine,
		},
	}
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Engine exposes the underlying router, used by tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
