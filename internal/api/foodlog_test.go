package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaloriapp/backend/internal/service"
	"github.com/kaloriapp/backend/internal/testhelpers"
	"github.com/kaloriapp/backend/internal/types"
)

// foodLogRouter wires real sqlite-backed services behind the protected
// routes and returns an authenticated user's token alongside the router.
func foodLogRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()

	db := testhelpers.SetupSQLiteDB(t)
	authService := service.NewAuthService(db, "test-secret-key")
	foodLogService := service.NewFoodLogService(db, nil)
	handler := NewFoodLogHandler(foodLogService, nil, authService, 2)

	token, err := authService.Register("Test User", "test@example.com", "password123", "testuser")
	require.NoError(t, err)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, token
}

func doAuthed(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const logBody = `{"food_name":"Grilled Chicken Plate","portion_size":"medium","weight_grams":350,"calories":450,"protein":45,"carbs":12,"fat":22,"confidence_score":85}`

func TestLogFoodEndpoint(t *testing.T) {
	t.Run("creates entry for authenticated user", func(t *testing.T) {
		router, token := foodLogRouter(t)

		w := doAuthed(router, http.MethodPost, "/api/v1/food-log", logBody, token)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Entry struct {
				FoodName string  `json:"food_name"`
				Calories float64 `json:"calories"`
				LogDate  string  `json:"log_date"`
			} `json:"entry"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Grilled Chicken Plate", resp.Entry.FoodName)
		assert.Equal(t, float64(450), resp.Entry.Calories)
		assert.Equal(t, service.Today(), resp.Entry.LogDate)
	})

	t.Run("requires authentication", func(t *testing.T) {
		router, _ := foodLogRouter(t)

		w := doAuthed(router, http.MethodPost, "/api/v1/food-log", logBody, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		router, _ := foodLogRouter(t)

		w := doAuthed(router, http.MethodPost, "/api/v1/food-log", logBody, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects invalid portion size", func(t *testing.T) {
		router, token := foodLogRouter(t)

		w := doAuthed(router, http.MethodPost, "/api/v1/food-log", `{"food_name":"Soup","portion_size":"huge"}`, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListEntriesEndpoint(t *testing.T) {
	router, token := foodLogRouter(t)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, doAuthed(router, http.MethodPost, "/api/v1/food-log", logBody, token).Code)
	}

	t.Run("returns entries", func(t *testing.T) {
		w := doAuthed(router, http.MethodGet, "/api/v1/food-log", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []json.RawMessage `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Entries, 3)
	})

	t.Run("honors limit query", func(t *testing.T) {
		w := doAuthed(router, http.MethodGet, "/api/v1/food-log?limit=2", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []json.RawMessage `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Entries, 2)
	})
}

func TestDashboardEndpoint(t *testing.T) {
	router, token := foodLogRouter(t)

	require.Equal(t, http.StatusCreated, doAuthed(router, http.MethodPost, "/api/v1/food-log", logBody, token).Code)

	w := doAuthed(router, http.MethodGet, "/api/v1/dashboard", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var summary types.DailySummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, service.Today(), summary.Date)
	assert.Equal(t, float64(450), summary.Calories)
	assert.Equal(t, 1, summary.Entries)
	assert.Equal(t, 1, summary.Streak)
	assert.Equal(t, 10, summary.Points)
	assert.Equal(t, 1, summary.AnalysesUsed)
	assert.Equal(t, 2, summary.AnalysesQuota)
}
