// Package httpx 是两个服务共用的 gin 中间件与响应工具。
package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ceyewan/cityweather/clog"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

// RequestID 透传或生成请求 ID，写入响应头和请求 Context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(clog.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog 每个请求结束后记录一条日志，5xx 记为 Error
func AccessLog(logger clog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []clog.Field{
			clog.String("method", c.Request.Method),
			clog.String("path", c.Request.URL.Path),
			clog.Int("status", status),
			clog.Duration("latency", time.Since(start)),
			clog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, clog.String("errors", c.Errors.String()))
		}

		ctx := c.Request.Context()
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "http request", fields...)
		} else {
			logger.InfoContext(ctx, "http request", fields...)
		}
	}
}

// Recovery panic 时返回 500 并记录日志
func Recovery(logger clog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			clog.Any("panic", rec),
			clog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: "internal error"})
	})
}

// ErrorBody 错误响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// Abort 以 JSON 错误体终止请求，并把 err 记入 c.Errors 供访问日志输出
func Abort(c *gin.Context, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorBody{Error: err.Error()})
}
