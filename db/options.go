package db

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/cityweather/clog"
)

// Option 配置 DB 实例的选项
type Option func(*options)

type options struct {
	logger         clog.Logger
	tracerProvider trace.TracerProvider
	tracing        bool
}

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("db")
		}
	}
}

// WithTracing 开启 otelgorm 追踪插件，tp 为 nil 时使用全局 TracerProvider
func WithTracing(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracing = true
		o.tracerProvider = tp
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = clog.Discard()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	return o
}
