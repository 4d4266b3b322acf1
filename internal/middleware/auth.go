package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/config"
	"clinic-records-server/internal/core"
	"clinic-records-server/internal/models"
	"clinic-records-server/internal/utils"
)

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, core.Errorf(core.KindUnauthenticated, "authorization header required"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondError(c, core.Errorf(core.KindUnauthenticated, "invalid authorization header format"))
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.RespondError(c, core.Errorf(core.KindUnauthenticated, "invalid token: %v", err))
			c.Abort()
			return
		}

		// Set session information in context for downstream handlers
		c.Set("accountID", claims.AccountID)
		c.Set("accountRole", claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware. Fine-grained ownership
// checks still happen in the core's AccessGuard; this only gates whole
// route groups by role.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSessionFromContext(c)
		if !ok {
			utils.InternalServerError(c, "Session not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if session.Role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			utils.RespondError(c, core.Errorf(core.KindRoleMismatch, "you do not have permission to access this resource"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetSessionFromContext assembles the caller's session from the values
// AuthMiddleware stored in the gin context.
func GetSessionFromContext(c *gin.Context) (core.Session, bool) {
	accountID, exists := c.Get("accountID")
	if !exists {
		return core.Session{}, false
	}
	idStr, ok := accountID.(string)
	if !ok {
		return core.Session{}, false
	}

	accountRole, exists := c.Get("accountRole")
	if !exists {
		return core.Session{}, false
	}
	role, ok := accountRole.(models.Role)
	if !ok {
		return core.Session{}, false
	}

	return core.Session{AccountID: idStr, Role: role}, true
}
