package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/models"
)

func setupRouter(tokens *auth.TokenManager, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	handlers := append([]gin.HandlerFunc{RequireAuth(tokens)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		c.JSON(http.StatusOK, identity)
	})
	router.GET("/protected", handlers...)
	return router
}

func bearer(t *testing.T, tokens *auth.TokenManager, role models.Role, kind auth.TokenKind) string {
	t.Helper()
	token, err := tokens.Sign(auth.Identity{UserID: "u1", TenantID: "t1", Role: role, Email: "u1@example.com"}, kind)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Minute, time.Hour)
	router := setupRouter(tokens)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"refresh token", bearer(t, tokens, models.RoleAdmin, auth.RefreshToken), http.StatusUnauthorized},
		{"access token", bearer(t, tokens, models.RoleAdmin, auth.AccessToken), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRequireAuthStoresIdentity(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Minute, time.Hour)
	router := setupRouter(tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, tokens, models.RoleWorker, auth.AccessToken))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var identity auth.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "t1", identity.TenantID)
	assert.Equal(t, models.RoleWorker, identity.Role)
}

func TestRoleGuards(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Minute, time.Hour)

	tests := []struct {
		name  string
		guard gin.HandlerFunc
		role  models.Role
		want  int
	}{
		{"admin only allows admin", AdminOnly(), models.RoleAdmin, http.StatusOK},
		{"admin only rejects worker", AdminOnly(), models.RoleWorker, http.StatusForbidden},
		{"staff allows worker", AdminOrWorker(), models.RoleWorker, http.StatusOK},
		{"staff rejects customer", AdminOrWorker(), models.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tokens, tt.guard)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", bearer(t, tokens, tt.role, auth.AccessToken))
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	router.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}
