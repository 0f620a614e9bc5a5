package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/adbeam/recycling-rewards-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	UserRoleKey  = "userRole"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(tokenString string) (*jwt.Claims, error)
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized", "reason": reason})
}

// JWTAuthMiddleware creates a gin middleware for JWT authentication.
func JWTAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			unauthorized(c, "Authorization header must start with Bearer ")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(authHeader[len(bearerSchema):]))
		if err != nil {
			slog.Warn("JWTAuthMiddleware: token validation failed", "error", err, "requestId", c.GetString(RequestIDKey))
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(c, "Token has expired")
			} else {
				unauthorized(c, "Invalid token")
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only if the authenticated role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Forbidden", "reason": "insufficient role"})
	}
}
