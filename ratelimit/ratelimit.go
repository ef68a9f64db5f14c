// Package ratelimit 提供进程内令牌桶限流，基于 golang.org/x/time/rate。
//
// 每个 key（默认是客户端 IP）拥有独立的令牌桶，长时间未访问的桶会被后台清理。
//
// 基本使用：
//
//	limiter, _ := ratelimit.NewStandalone(&ratelimit.Config{
//		Rate:  50,
//		Burst: 100,
//	}, ratelimit.WithLogger(logger))
//	defer limiter.Close()
//
//	r := gin.New()
//	r.Use(ratelimit.GinMiddleware(limiter, ratelimit.ByClientIP))
package ratelimit

import (
	"context"
	"time"
)

// Limit 令牌桶规则
type Limit struct {
	Rate  float64 // 每秒生成的令牌数
	Burst int     // 桶容量
}

// Valid 规则是否可用
func (l Limit) Valid() bool {
	return l.Rate > 0 && l.Burst > 0
}

// Limiter 限流器
type Limiter interface {
	// Allow 非阻塞地尝试获取 1 个令牌
	Allow(ctx context.Context, key string, limit Limit) (bool, error)

	// Wait 阻塞直到获取 1 个令牌或 ctx 结束
	Wait(ctx context.Context, key string, limit Limit) error

	// Default 返回配置中的默认规则
	Default() Limit

	Close() error
}

// Config 单机限流配置
type Config struct {
	// Enabled 是否在 HTTP 入口启用限流
	Enabled bool `mapstructure:"enabled"`
	// Rate 默认每秒令牌数 (默认: 100)
	Rate float64 `mapstructure:"rate"`
	// Burst 默认桶容量 (默认: 200)
	Burst int `mapstructure:"burst"`
	// CleanupInterval 清理周期 (默认: 1m)
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// IdleTimeout 桶空闲多久后被清理 (默认: 5m)
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

func (c *Config) setDefaults() {
	if c.Rate <= 0 {
		c.Rate = 100
	}
	if c.Burst <= 0 {
		c.Burst = 200
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
}

// NewStandalone 创建单机限流器
func NewStandalone(cfg *Config, opts ...Option) (Limiter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	return newStandalone(cfg, applyOptions(opts...))
}
