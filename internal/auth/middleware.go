package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextAdminID is the gin context key holding the authenticated admin's
// subject claim.
const ContextAdminID = "admin_id"

// Middleware enforces a bearer token on the routes it wraps. When auth is
// disabled the middleware is a pass-through.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !service.IsEnabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}
		// Accept both raw tokens and the Bearer prefix.
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := service.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextAdminID, claims.Subject)
		c.Next()
	}
}
