package breaker

import (
	"context"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
)

// Option 组件初始化选项函数
type Option func(*options)

// FallbackFunc 熔断打开时的降级函数，返回值直接作为 Execute 的结果
type FallbackFunc func(ctx context.Context, key string, err error) (any, error)

type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	fallback FallbackFunc
}

// WithLogger 设置 Logger，内部会自动添加 namespace "breaker"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("breaker")
		}
	}
}

// WithMeter 设置指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithFallback 设置降级函数
func WithFallback(fallback FallbackFunc) Option {
	return func(o *options) {
		o.fallback = fallback
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard(), meter: metrics.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
