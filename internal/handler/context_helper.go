package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/middleware"
	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the authenticated user or writes a 401.
func actorFromContext(c *gin.Context) (models.User, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.User{}, false
	}
	return claims.User(), true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}
