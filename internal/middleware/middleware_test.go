package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTConfig("middleware-secret", time.Hour)
}

func newRouter(rl *InvalidAuthRateLimiter, guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(LoggingMiddleware())
	chain := append([]gin.HandlerFunc{NewJWTMiddleware(rl).Handle()}, guards...)
	chain = append(chain, func(c *gin.Context) {
		actor := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"operator": actor.OperatorID, "role": actor.Role, "attraction": c.GetInt(ContextAttractionID)})
	})
	r.GET("/me", chain...)
	return r
}

func token(t *testing.T, id int, role models.OperatorRole, attraction *int) string {
	t.Helper()
	tok, _, err := utils.GenerateJWT(id, "user", "User", string(role), attraction)
	require.NoError(t, err)
	return tok
}

func TestJWTMiddleware(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()
	defer rl.Stop()
	r := newRouter(rl)
	attraction := 10

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 7, models.RoleAttraction, &attraction))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator":7,"role":"attraction","attraction":10}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me?token="+token(t, 8, models.RoleStaff, nil), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTMiddleware_RateLimitsInvalidTokens(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()
	defer rl.Stop()
	r := newRouter(rl)

	codes := []int{}
	for i := 0; i < 7; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[4])
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
	assert.Equal(t, http.StatusTooManyRequests, codes[6])
}

func TestRequireRole(t *testing.T) {
	r := newRouter(nil, RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 1, models.RoleAdmin, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 2, models.RoleStaff, nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInvalidAuthRateLimiter_WindowResets(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()
	defer rl.Stop()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
	assert.True(t, rl.Blocked("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	clock = clock.Add(2 * time.Minute)
	assert.False(t, rl.Blocked("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"pdv.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://pdv.example.com:443/")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://pdv.example.com:443", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
