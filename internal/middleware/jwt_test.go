package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/middleware"
	"github.com/xxxsen/literag/internal/pkg/jwt"
)

func newAuthTestRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ping", middleware.JWTAuth(secret), func(c *gin.Context) {
		user, _ := c.Get(middleware.ContextUserKey)
		c.JSON(http.StatusOK, gin.H{"user": user})
	})
	return engine
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	secret := []byte("test-secret")
	engine := newAuthTestRouter(secret)

	token, err := jwt.GenerateToken("admin", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "admin")
}

func TestJWTAuthRejectsMissingOrBadToken(t *testing.T) {
	secret := []byte("test-secret")
	engine := newAuthTestRouter(secret)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.NotContains(t, rec.Body.String(), "admin")

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.NotContains(t, rec.Body.String(), "admin")

	// token signed with a different secret
	token, err := jwt.GenerateToken("admin", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.NotContains(t, rec.Body.String(), "admin")
}

func TestRateLimitOnePerWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/limited", middleware.RateLimit(time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NotEqual(t, "ok", rec.Body.String())
}
