package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BrandScene-server/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type limitEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Timestamp string `json:"timestamp"`
		RequestID string `json:"requestId"`
	} `json:"meta"`
}

func newLimitedEngine(t *testing.T, maxGeneral, maxAI int) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Limits.WindowSeconds = 900
	cfg.Limits.MaxRequests = maxGeneral
	cfg.Limits.AIPerMinute = maxAI

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) }
	r.GET("/general", RateLimit(rdb, cfg, zap.NewNop()), ok)
	r.GET("/ai", RateLimit(rdb, cfg, zap.NewNop()), AIRateLimit(rdb, cfg, zap.NewNop()), ok)
	return r
}

func hitLimit(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, limitEnvelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var env limitEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestRateLimitRejectsOverWindowCeiling(t *testing.T) {
	r := newLimitedEngine(t, 2, 100)

	for i := 0; i < 2; i++ {
		w, _ := hitLimit(t, r, "/general")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w, env := hitLimit(t, r, "/general")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.False(t, env.Success)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
	require.Equal(t, "Too many requests, please try again later", env.Error.Message)
	require.NotEmpty(t, env.Meta.RequestID)
}

func TestAIRateLimitStricterCeiling(t *testing.T) {
	// 通用额度足够，AI 额度先耗尽
	r := newLimitedEngine(t, 100, 1)

	w, _ := hitLimit(t, r, "/ai")
	require.Equal(t, http.StatusOK, w.Code)

	w, env := hitLimit(t, r, "/ai")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "AI_RATE_LIMIT", env.Error.Code)
	require.Equal(t, "AI request limit reached, please try again later", env.Error.Message)
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	cfg := &config.Config{}
	cfg.Limits.WindowSeconds = 900
	cfg.Limits.MaxRequests = 1

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/general", RateLimit(rdb, cfg, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// Redis 打不通时限流放行，超出额度的请求也不拦
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/general", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
