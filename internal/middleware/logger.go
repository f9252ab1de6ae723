package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"github.com/wfunc/fate-dice/internal/logger"
)

// RequestLogger 记录请求日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" && c.Query("token") == "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// Recovery 捕获panic并返回500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    apperrors.ErrUnknown,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}
