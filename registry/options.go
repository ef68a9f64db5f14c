package registry

import (
	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
)

// Option 客户端与 Registrar 共用的选项
type Option func(*options)

type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	observer func(Status)
}

// WithLogger 设置 Logger
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("registry")
		}
	}
}

// WithMeter Registrar 以 service_registration_state 暴露注册状态
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithStatusObserver 每次注册状态变化后同步回调 fn，仅 Registrar 使用
func WithStatusObserver(fn func(Status)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard(), meter: metrics.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
