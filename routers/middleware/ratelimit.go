package middleware

import (
	"fmt"
	"net/http"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixedWindow Redis 固定窗口限流：INCR + 首次设置过期
func fixedWindow(rdb *redis.Client, log *zap.Logger, keyPrefix string, window time.Duration, limit int, code apperr.Code) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket := time.Now().Unix() / int64(window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%s:%d", keyPrefix, c.ClientIP(), bucket)

		pipe := rdb.Pipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			// Redis 故障时放行，不把限流做成单点
			log.Warn("限流检查失败，放行请求", zap.Error(err))
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			msg := "Too many requests, please try again later"
			if code == apperr.CodeAIRateLimit {
				msg = "AI request limit reached, please try again later"
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorEnvelope(c, &apperr.Error{
				Code:    code,
				Message: msg,
				Status:  http.StatusTooManyRequests,
			}))
			return
		}
		c.Next()
	}
}

// RateLimit 通用接口限流（默认 15 分钟 100 次）
func RateLimit(rdb *redis.Client, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	window := time.Duration(cfg.Limits.WindowSeconds) * time.Second
	return fixedWindow(rdb, log, "general", window, cfg.Limits.MaxRequests, apperr.CodeRateLimit)
}

// AIRateLimit AI 接口单独的每分钟限流
func AIRateLimit(rdb *redis.Client, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return fixedWindow(rdb, log, "ai", time.Minute, cfg.Limits.AIPerMinute, apperr.CodeAIRateLimit)
}
