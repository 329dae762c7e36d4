package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := v[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func newGuardedRouter(guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := validatorStub{
		"admin-token": {UserID: "u1", Role: models.RoleAdmin, SessionID: "s1"},
		"guru-token":  {UserID: "u2", Role: models.RoleTeacher, SessionID: "s2"},
	}
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(tokens)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := Claims(c)
		c.String(http.StatusOK, claims.UserID)
	})
	router.GET("/", handlers...)
	return router
}

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTMiddleware(t *testing.T) {
	router := newGuardedRouter()

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Token admin-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "Bearer expired").Code)

	ok := serve(router, "bearer guru-token")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "u2", ok.Body.String())
}

func TestRequireRoles(t *testing.T) {
	router := newGuardedRouter(RequireRoles(models.RoleAdmin))

	assert.Equal(t, http.StatusOK, serve(router, "Bearer admin-token").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "Bearer guru-token").Code)
}

func TestRequireCapability(t *testing.T) {
	record := newGuardedRouter(RequireCapability(models.CapRecordTransactions))
	assert.Equal(t, http.StatusOK, serve(record, "Bearer guru-token").Code)

	manage := newGuardedRouter(RequireCapability(models.CapManageStudents))
	assert.Equal(t, http.StatusForbidden, serve(manage, "Bearer guru-token").Code)
	assert.Equal(t, http.StatusOK, serve(manage, "Bearer admin-token").Code)
}

func TestGuardWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}
