package middleware

import (
	"net/http"

	"odenehouk/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user has the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role.(string) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// IsAdmin reports whether the authenticated user is an admin.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == domain.RoleAdmin
}
