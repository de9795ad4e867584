package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/constants"
	"github.com/yukikurage/field-service-api/internal/dto"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/middleware"
	"github.com/yukikurage/field-service-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login returns an access token and keeps the refresh token in the session
// cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !h.saveRefreshToken(c, result.Tokens.RefreshToken) {
		return
	}
	logger.FromGin(c).Info("User logged in", zap.String("user_id", result.User.ID))

	respond(c, http.StatusOK, dto.LoginResponse{
		User:        result.User,
		AccessToken: result.Tokens.AccessToken,
	})
}

// Refresh rotates both tokens. The refresh token is read from the session
// cookie, or from the body when no cookie is present.
func (h *AuthHandler) Refresh(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get(constants.SessionRefreshKey).(string)
	if token == "" {
		var req dto.RefreshRequest
		if c.Request.ContentLength != 0 {
			_ = c.ShouldBindJSON(&req)
		}
		token = req.RefreshToken
	}
	if token == "" {
		apierrors.Unauthorized(c, "No refresh token provided")
		return
	}

	result, err := h.authService.Refresh(token)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) && !errors.Is(err, services.ErrTenantInactive) {
			respondServiceError(c, err)
			return
		}
		session.Clear()
		_ = session.Save()
		apierrors.Unauthorized(c, "Invalid or expired refresh token")
		return
	}

	if !h.saveRefreshToken(c, result.Tokens.RefreshToken) {
		return
	}

	respond(c, http.StatusOK, dto.LoginResponse{
		User:        result.User,
		AccessToken: result.Tokens.AccessToken,
	})
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout", err)
		return
	}

	respondMessage(c, "Logged out successfully")
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(identity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, user)
}

func (h *AuthHandler) saveRefreshToken(c *gin.Context, token string) bool {
	session := sessions.Default(c)
	session.Set(constants.SessionRefreshKey, token)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session", err)
		return false
	}
	return true
}
