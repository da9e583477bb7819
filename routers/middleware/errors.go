package middleware

import (
	"errors"
	"time"

	"BrandScene-server/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MySQL 错误码
const (
	mysqlDupEntry    = 1062
	mysqlFKViolation = 1452
)

// errorEnvelope 统一错误响应体
func errorEnvelope(c *gin.Context, ae *apperr.Error) gin.H {
	errBody := gin.H{
		"code":    ae.Code,
		"message": ae.Message,
	}
	if ae.Details != nil {
		errBody["details"] = ae.Details
	}
	meta := gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)}
	if id := GetRequestID(c); id != "" {
		meta["requestId"] = id
	}
	return gin.H{
		"success": false,
		"error":   errBody,
		"meta":    meta,
	}
}

// translate 把底层错误归一成 *apperr.Error
func translate(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Resource", "")
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return apperr.Conflict("Resource already exists")
		case mysqlFKViolation:
			return apperr.Validation("Invalid reference to related resource")
		}
		return apperr.Database("Database operation failed", err)
	}
	return apperr.Internal(err)
}

// ErrorHandler 集中错误出口。handler 只管 c.Error(err) + Abort，
// 映射、日志和脱敏都在这里做。release 模式下非预期错误只回笼统信息。
func ErrorHandler(log *zap.Logger, mode string) gin.HandlerFunc {
	production := mode == gin.ReleaseMode
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}

		ae := translate(c.Errors.Last().Err)

		log.Error("request failed",
			zap.String("id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(ae.Code)),
			zap.Bool("operational", ae.Operational),
			zap.Error(c.Errors.Last().Err),
		)

		if production && !ae.Operational {
			ae = &apperr.Error{
				Code:    ae.Code,
				Message: "An unexpected error occurred",
				Status:  ae.Status,
			}
		}
		c.JSON(ae.Status, errorEnvelope(c, ae))
	}
}
