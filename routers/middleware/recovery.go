package middleware

import (
	"net/http"
	"runtime/debug"

	"BrandScene-server/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 捕获 panic，记日志并返回统一的 500 响应
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.String("id", GetRequestID(c)),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope(c, &apperr.Error{
					Code:    apperr.CodeInternal,
					Message: "An unexpected error occurred",
					Status:  http.StatusInternalServerError,
				}))
			}
		}()
		c.Next()
	}
}
