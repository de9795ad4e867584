package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/constants"
	apierrors "github.com/yukikurage/field-service-api/internal/errors"
	"github.com/yukikurage/field-service-api/internal/logger"
	"github.com/yukikurage/field-service-api/internal/models"
)

// RequireAuth checks the bearer access token and stores the caller identity
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}

		identity, err := tokens.Verify(strings.TrimSpace(token), auth.AccessToken)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)
		c.Set(constants.ContextKeyLogger, logger.FromGin(c).With(
			zap.String("user_id", identity.UserID),
			zap.String("tenant_id", identity.TenantID),
		))
		c.Next()
	}
}

// GetIdentity retrieves the authenticated caller from context
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			apierrors.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		apierrors.Forbidden(c, "Insufficient permissions")
		c.Abort()
	}
}

// AdminOnly allows tenant administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// AdminOrWorker allows every staff member of the tenant.
func AdminOrWorker() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleWorker)
}
