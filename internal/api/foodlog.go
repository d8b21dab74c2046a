package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kaloriapp/backend/internal/middleware"
	"github.com/kaloriapp/backend/internal/service"
	"github.com/kaloriapp/backend/internal/types"
)

// FoodLogHandler handles food log and dashboard requests
type FoodLogHandler struct {
	foodLog     service.IFoodLogService
	photos      service.IPhotoService
	authService service.IAuthService
	dailyQuota  int
}

// NewFoodLogHandler creates a new FoodLogHandler instance
func NewFoodLogHandler(foodLog service.IFoodLogService, photos service.IPhotoService, authService service.IAuthService, dailyQuota int) *FoodLogHandler {
	return &FoodLogHandler{
		foodLog:     foodLog,
		photos:      photos,
		authService: authService,
		dailyQuota:  dailyQuota,
	}
}

// RegisterRoutes registers the protected food log routes
func (h *FoodLogHandler) RegisterRoutes(router *gin.RouterGroup) {
	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(h.authService))
	{
		protected.POST("/food-log", h.LogFood)
		protected.GET("/food-log", h.ListEntries)
		protected.GET("/dashboard", h.Dashboard)
	}
}

// LogFood appends a finalized analysis result to the caller's food log
func (h *FoodLogHandler) LogFood(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req types.LogFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageURL := ""
	if req.Image != "" && h.photos != nil {
		url, err := h.photos.StoreFoodPhoto(c.Request.Context(), req.Image)
		if err != nil {
			// Photo storage failure does not lose the log entry.
			log.Printf("[FoodLogHandler] Failed to store photo: %v", err)
		} else {
			imageURL = url
		}
	}

	entry, err := h.foodLog.LogFood(c.Request.Context(), userID, &req, imageURL)
	if err != nil {
		log.Printf("[FoodLogHandler] Failed to log food: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save food log entry"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListEntries returns the caller's food log, newest first
func (h *FoodLogHandler) ListEntries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.foodLog.ListEntries(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list food log entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Dashboard returns today's totals, streak, points and remaining analyses
func (h *FoodLogHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.foodLog.DailySummary(c.Request.Context(), userID, service.Today(), h.dailyQuota)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build daily summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// currentUserID extracts the authenticated user from the context set by the
// auth middleware
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}

	return userID, true
}
