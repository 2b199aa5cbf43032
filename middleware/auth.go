package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inmoback/database"
	"inmoback/models"
	"inmoback/utils"
)

const userContextKey = "current_user"

// AuthMiddleware validates JWT tokens for authenticated routes.
func AuthMiddleware() gin.HandlerFunc {
	users := database.NewUserStore()

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenParts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.Get(ctx, claims.UserID)
		if err != nil {
			utils.UnauthorizedResponse(c, "User not found")
			c.Abort()
			return
		}
		if !user.IsActive {
			utils.UnauthorizedResponse(c, "Account is deactivated")
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Set("token_claims", claims)
		c.Next()
	}
}

// AdminMiddleware requires an authenticated admin user. Must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}
		if user.Role != models.UserRoleAdmin {
			utils.ForbiddenResponse(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user set by AuthMiddleware.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
