// Package breaker 提供按 key 隔离的熔断器，基于 gobreaker v2。
//
// 每个 key（通常是下游依赖名）拥有独立的熔断器：失败率在 MinimumRequests 之后
// 超过 FailureRatio 即打开，Timeout 后进入半开并放行 MaxRequests 个探测请求。
//
// 基本使用：
//
//	brk, _ := breaker.New(&breaker.Config{
//		Timeout:         30 * time.Second,
//		FailureRatio:    0.6,
//		MinimumRequests: 10,
//	}, breaker.WithLogger(logger))
//
//	rec, err := breaker.Do(ctx, brk, "weather-store", func() (*Record, error) {
//		return repo.FindByCity(ctx, name)
//	})
//
// 调用方取消（context.Canceled）不计为失败，避免客户端断开导致熔断。
package breaker

import (
	"context"
	"time"
)

// Breaker 熔断器
type Breaker interface {
	// Execute 执行受熔断保护的函数，熔断打开时返回 ErrOpenState（或降级函数的结果）
	Execute(ctx context.Context, key string, fn func() (any, error)) (any, error)

	// State 获取指定 key 的状态，未使用过的 key 为 StateClosed
	State(key string) (State, error)
}

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许通过的请求数 (默认: 1)
	MaxRequests uint32 `mapstructure:"max_requests"`
	// Interval 闭合状态下清空计数的周期，0 表示不清空
	Interval time.Duration `mapstructure:"interval"`
	// Timeout 打开状态持续时间 (默认: 60s)
	Timeout time.Duration `mapstructure:"timeout"`
	// FailureRatio 触发熔断的失败率 (默认: 0.6)
	FailureRatio float64 `mapstructure:"failure_ratio"`
	// MinimumRequests 统计失败率前的最小请求数 (默认: 10)
	MinimumRequests uint32 `mapstructure:"minimum_requests"`
}

func (c *Config) setDefaults() {
	if c.MaxRequests == 0 {
		c.MaxRequests = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.6
	}
	if c.MinimumRequests == 0 {
		c.MinimumRequests = 10
	}
}

// New 创建熔断器
func New(cfg *Config, opts ...Option) (Breaker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	cfg.setDefaults()
	return newBreaker(cfg, applyOptions(opts...))
}

// Do 是 Execute 的泛型封装
func Do[T any](ctx context.Context, b Breaker, key string, fn func() (T, error)) (T, error) {
	res, err := b.Execute(ctx, key, func() (any, error) {
		return fn()
	})
	var zero T
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	return res.(T), nil
}
