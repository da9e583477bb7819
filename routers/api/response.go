package api

import (
	"net/http"
	"time"

	"BrandScene-server/routers/middleware"

	"github.com/gin-gonic/gin"
)

// envelope 统一响应体：{success, data?, message?, meta{timestamp, requestId?}}
// 错误走 abortErr -> middleware.ErrorHandler，响应体结构保持一致。
func envelope(c *gin.Context, data interface{}, message string) gin.H {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	meta := gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)}
	if id := middleware.GetRequestID(c); id != "" {
		meta["requestId"] = id
	}
	body["meta"] = meta
	return body
}

func respondOK(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, envelope(c, data, message))
}

func respondCreated(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusCreated, envelope(c, data, message))
}

// abortErr 把错误交给集中错误中间件
func abortErr(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindOptionalJSON 绑定可省略的请求体：没有 body 时保留零值
func bindOptionalJSON(c *gin.Context, out interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(out)
}
