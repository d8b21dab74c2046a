package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaloriapp/backend/internal/middleware"
	"github.com/kaloriapp/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVisionService struct {
	result *service.AnalysisResult
	err    error
	calls  int
	images []string
}

func (s *stubVisionService) AnalyzeMeal(_ context.Context, images []string) (*service.AnalysisResult, error) {
	s.calls++
	s.images = images
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubVisionService) DemoMode() bool { return false }

func testImage() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("photo"))
}

func analyzeRouter(vision service.IVisionService, quota int) *gin.Engine {
	limiter := middleware.NewRateLimiter(middleware.NewMemoryCounterStore(), middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     1000,
		KeyPrefix: "rate_limit:test",
	})
	handler := NewAnalyzeHandler(vision, limiter, quota, false)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postAnalyze(router *gin.Engine, body string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:1234"
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: service.UsageCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func analyzeBody(t *testing.T, images ...string) string {
	t.Helper()
	body, err := json.Marshal(map[string][]string{"images": images})
	require.NoError(t, err)
	return string(body)
}

func usageCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == service.UsageCookieName {
			return c
		}
	}
	t.Fatal("usage cookie not set")
	return nil
}

func TestAnalyze(t *testing.T) {
	okResult := &service.AnalysisResult{
		FoodName:        "Omelette",
		PortionSize:     "small",
		WeightGrams:     120,
		Calories:        210,
		Protein:         14,
		Carbs:           2,
		Fat:             16,
		ConfidenceScore: 90,
	}

	t.Run("returns analysis and issues usage cookie", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "")
		require.Equal(t, http.StatusOK, w.Code)

		var got service.AnalysisResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Omelette", got.FoodName)
		assert.Equal(t, 1, stub.calls)

		cookie := usageCookie(t, w)
		assert.Equal(t, service.Today()+":1", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	})

	t.Run("cookie token goes out unescaped", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "")
		require.Equal(t, http.StatusOK, w.Code)

		// The ":" separator must reach the wire raw, not as %3A.
		header := w.Header().Get("Set-Cookie")
		assert.Contains(t, header, service.UsageCookieName+"="+service.Today()+":1")
		assert.NotContains(t, header, "%3A")
	})

	t.Run("passes all images through in order", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		images := []string{testImage(), testImage(), testImage()}
		w := postAnalyze(router, analyzeBody(t, images...), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, images, stub.images)
	})

	t.Run("rejects empty image list without calling the model", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, `{"images":[]}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid request format")
		assert.Zero(t, stub.calls)
	})

	t.Run("rejects missing body", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, `{}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, stub.calls)
	})

	t.Run("rejects non-image payload", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, "not-a-data-uri"), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, stub.calls)
	})

	t.Run("counts up to the daily quota then rejects", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "")
		require.Equal(t, http.StatusOK, w.Code)
		first := usageCookie(t, w)

		w = postAnalyze(router, analyzeBody(t, testImage()), first.Value)
		require.Equal(t, http.StatusOK, w.Code)
		second := usageCookie(t, w)
		assert.Equal(t, service.Today()+":2", second.Value)

		w = postAnalyze(router, analyzeBody(t, testImage()), second.Value)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "daily analysis limit reached")
		assert.Equal(t, 2, stub.calls)
	})

	t.Run("stale cookie grants a fresh quota", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "2020-01-01:2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.Today()+":1", usageCookie(t, w).Value)
	})

	t.Run("malformed cookie grants a fresh quota", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "garbage-value")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.Today()+":1", usageCookie(t, w).Value)
	})

	t.Run("analysis failure does not consume quota", func(t *testing.T) {
		stub := &stubVisionService{err: errors.New("model unavailable")}
		router := analyzeRouter(stub, 2)

		w := postAnalyze(router, analyzeBody(t, testImage()), "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Analysis failed")

		for _, c := range w.Result().Cookies() {
			assert.NotEqual(t, service.UsageCookieName, c.Name)
		}
	})

	t.Run("rate limit applies before the handler", func(t *testing.T) {
		stub := &stubVisionService{result: okResult}
		limiter := middleware.NewRateLimiter(middleware.NewMemoryCounterStore(), middleware.RateLimitConfig{
			Window:    time.Minute,
			Limit:     1,
			KeyPrefix: "rate_limit:test",
		})
		handler := NewAnalyzeHandler(stub, limiter, 10, false)
		router := gin.New()
		handler.RegisterRoutes(router.Group("/api/v1"))

		require.Equal(t, http.StatusOK, postAnalyze(router, analyzeBody(t, testImage()), "").Code)

		w := postAnalyze(router, analyzeBody(t, testImage()), "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
		assert.Equal(t, 1, stub.calls)
	})
}
