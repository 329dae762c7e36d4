package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

// RequireRoles allows only the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return guard(func(role models.UserRole) bool {
		_, ok := allowed[role]
		return ok
	})
}

// RequireCapability allows roles that grant capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return guard(func(role models.UserRole) bool {
		return role.Can(capability)
	})
}

func guard(permit func(models.UserRole) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !permit(claims.Role) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
