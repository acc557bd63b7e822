package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/internal/middleware"
)

func limiterRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	router := gin.New()
	router.Use(middleware.RateLimiter(client, cfg))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router, mr
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	cfg := config.New()
	cfg.RateLimitRequests = 3
	router, _ := limiterRouter(t, cfg)

	for i := 0; i < 3; i++ {
		w := get(router, "/ping")
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := get(router, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	cfg := config.New()
	cfg.RateLimitRequests = 1
	router, mr := limiterRouter(t, cfg)

	mr.Close()

	for i := 0; i < 3; i++ {
		w := get(router, "/ping")
		assert.Equal(t, http.StatusOK, w.Code, "requests pass when redis is down")
	}
}

func TestUploadRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.New()
	cfg.UploadMaxPerDay = 2

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	router := gin.New()
	router.Use(middleware.UploadRateLimit(client, cfg))
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.POST("/upload", handler)
	router.GET("/upload", handler)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, post().Code)
	require.Equal(t, http.StatusOK, post().Code)

	w := post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are never upload-limited.
	w = get(router, "/upload")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.New()

	router := gin.New()
	router.Use(middleware.AdminAccess(cfg))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": c.GetBool(middleware.ContextIsAdmin)})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Admin-Access", "true")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"admin":true`)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Admin-Access", "yes")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"admin":false`)
}
