package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"chalin/internal/core/apperror"
	"chalin/internal/core/security"
)

// TokenValidator validates access tokens into capability scopes.
type TokenValidator interface {
	ValidateToken(tokenString string) (*security.Scope, error)
}

// Auth middleware validates JWT tokens and populates the request scope.
// Downstream document effects read the scope from context; a request
// that never passed here carries no scope and fails branch checks.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		scope, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := security.WithScope(c.Request.Context(), scope)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", scope.UserID)
		c.Set("role", string(scope.Role))

		c.Next()
	}
}

// RequireRole middleware checks if the authenticated user has one of the roles.
// Admin scopes pass every role check.
func RequireRole(roles ...security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := security.GetScope(c.Request.Context())
		if scope == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if scope.IsAdmin {
			c.Next()
			return
		}

		for _, required := range roles {
			if scope.Role == required {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
