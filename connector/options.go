package connector

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/cityweather/clog"
)

type options struct {
	logger         clog.Logger
	tracerProvider trace.TracerProvider
	tracing        bool
}

// Option 配置连接器的选项
type Option func(*options)

// WithLogger 设置日志记录器
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("connector")
		}
	}
}

// WithTracing 为支持的客户端开启 OpenTelemetry 追踪（目前为 Redis）。
// tp 为 nil 时使用全局 TracerProvider。
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
