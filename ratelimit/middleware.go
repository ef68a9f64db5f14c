package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// KeyFunc 从请求中提取限流键，返回空串时不限流
type KeyFunc func(c *gin.Context) string

// ByClientIP 按客户端 IP 限流
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByHeader 优先使用请求头中的值，缺失时回退到客户端 IP
func ByHeader(name string) KeyFunc {
	return func(c *gin.Context) string {
		if v := c.GetHeader(name); v != "" {
			return name + ":" + v
		}
		return c.ClientIP()
	}
}

// GinMiddleware 按 limiter.Default() 对每个键限流，超限时返回 429。
// key 为 nil 时使用 ByClientIP。限流器自身出错时放行。
func GinMiddleware(limiter Limiter, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ByClientIP
	}
	limit := limiter.Default()
	burst := strconv.Itoa(limit.Burst)

	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", burst)
		allowed, err := limiter.Allow(c.Request.Context(), k, limit)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(retryAfter(limit)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}

// retryAfter 补充一个令牌所需的秒数，至少 1 秒
func retryAfter(limit Limit) int {
	if limit.Rate <= 0 || limit.Rate >= 1 {
		return 1
	}
	return int(1/limit.Rate + 0.5)
}
