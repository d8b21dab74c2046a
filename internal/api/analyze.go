package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaloriapp/backend/internal/middleware"
	"github.com/kaloriapp/backend/internal/service"
	"github.com/kaloriapp/backend/internal/types"
)

// AnalyzeHandler handles meal photo analysis requests
type AnalyzeHandler struct {
	vision        service.IVisionService
	limiter       *middleware.RateLimiter
	dailyQuota    int
	secureCookies bool
}

// NewAnalyzeHandler creates a new AnalyzeHandler instance
func NewAnalyzeHandler(vision service.IVisionService, limiter *middleware.RateLimiter, dailyQuota int, secureCookies bool) *AnalyzeHandler {
	return &AnalyzeHandler{
		vision:        vision,
		limiter:       limiter,
		dailyQuota:    dailyQuota,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the analyze route. The endpoint is public; the
// network rate limit applies before the handler runs.
func (h *AnalyzeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analyze", h.limiter.RateLimitMiddleware(), h.Analyze)
}

// Analyze validates the request, enforces the device daily quota, runs the
// vision analysis and re-issues the usage cookie. Every failing step
// terminates the request; nothing is retried.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	for i, img := range req.Images {
		if _, _, err := service.DecodeDataURI(img); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request format",
				"details": gin.H{"images": i, "reason": err.Error()},
			})
			return
		}
	}

	today := service.Today()
	usage := h.readUsage(c, today)
	if usage.Count >= h.dailyQuota {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "daily analysis limit reached",
			"message": "You have used your free analyses for today. A fresh quota unlocks at 00:00 UTC.",
		})
		return
	}

	result, err := h.vision.AnalyzeMeal(c.Request.Context(), req.Images)
	if err != nil {
		log.Printf("[AnalyzeHandler] Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed: " + err.Error()})
		return
	}

	usage.Count++
	h.writeUsage(c, usage)

	c.JSON(http.StatusOK, result)
}

// readUsage parses the device usage cookie against today's date. Absent or
// stale cookies count as zero; that reset is the intended daily rollover.
func (h *AnalyzeHandler) readUsage(c *gin.Context, today string) service.UsageRecord {
	token, err := c.Cookie(service.UsageCookieName)
	if err != nil {
		return service.UsageRecord{Date: today}
	}
	return service.ParseUsageToken(token, today)
}

// writeUsage re-issues the usage cookie with the incremented count. The
// cookie is HTTP-only and same-site strict so page script cannot read or
// forge it; a user editing their own cookie store still can, which is the
// accepted limit of a device-held quota. Written via http.SetCookie because
// gin's SetCookie URL-escapes the value and the token's ":" separator is a
// legal cookie octet that must stay raw on the wire.
func (h *AnalyzeHandler) writeUsage(c *gin.Context, usage service.UsageRecord) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     service.UsageCookieName,
		Value:    usage.Token(),
		Path:     "/",
		MaxAge:   service.UsageCookieMaxAge,
		Secure:   h.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
