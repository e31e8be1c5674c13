package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videoearn/config"
	"videoearn/internal/auth"
	"videoearn/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllow(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are limited independently")
}

func TestRateLimiterWindowExpires(t *testing.T) {
	l := NewInMemoryRateLimiter(1, 20*time.Millisecond)
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func testJWT() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "s", RefreshSecret: "r", AccessExpiry: time.Minute, RefreshExpiry: time.Hour}
}

func newAuthedEngine(cfg *config.JWTConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	r.GET("/x", handlers...)
	return r
}

func TestAuthRequired(t *testing.T) {
	cfg := testJWT()
	r := newAuthedEngine(cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := auth.GenerateAccessToken(cfg, 9, "9876543210", domain.RoleUser)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":9}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	cfg := testJWT()
	r := newAuthedEngine(cfg, AdminRequired())

	for role, want := range map[string]int{domain.RoleUser: http.StatusForbidden, domain.RoleAdmin: http.StatusOK} {
		tok, err := auth.GenerateAccessToken(cfg, 1, "9876543210", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}
