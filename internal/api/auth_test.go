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
)

func authRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()

	db := testhelpers.SetupSQLiteDB(t)
	authService := service.NewAuthService(db, "test-secret-key")
	handler := NewAuthHandler(authService)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, authService
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	registerBody := `{"name":"Test User","username":"testuser","email":"test@example.com","password":"password123"}`

	t.Run("successful registration returns token", func(t *testing.T) {
		router, authService := authRouter(t)

		w := postJSON(router, "/api/v1/auth/register", registerBody)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp["token"])

		claims, err := authService.ValidateToken(resp["token"])
		require.NoError(t, err)
		assert.Equal(t, "testuser", claims.Username)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		router, _ := authRouter(t)

		require.Equal(t, http.StatusCreated, postJSON(router, "/api/v1/auth/register", registerBody).Code)

		w := postJSON(router, "/api/v1/auth/register", `{"name":"Other","username":"other","email":"test@example.com","password":"password456"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		router, _ := authRouter(t)

		w := postJSON(router, "/api/v1/auth/register", `{"name":"Test","username":"test","email":"test@example.com","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		router, _ := authRouter(t)

		w := postJSON(router, "/api/v1/auth/register", `{"name":"Test","username":"test","email":"not-an-email","password":"password123"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	registerBody := `{"name":"Test User","username":"testuser","email":"test@example.com","password":"password123"}`

	t.Run("valid credentials return token", func(t *testing.T) {
		router, _ := authRouter(t)
		require.Equal(t, http.StatusCreated, postJSON(router, "/api/v1/auth/register", registerBody).Code)

		w := postJSON(router, "/api/v1/auth/login", `{"email":"test@example.com","password":"password123"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		router, _ := authRouter(t)
		require.Equal(t, http.StatusCreated, postJSON(router, "/api/v1/auth/register", registerBody).Code)

		w := postJSON(router, "/api/v1/auth/login", `{"email":"test@example.com","password":"wrongpassword"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid credentials")
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		router, _ := authRouter(t)

		w := postJSON(router, "/api/v1/auth/login", `{"email":"nobody@example.com","password":"password123"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
