package metrics

// Option Meter 构造选项
type Option func(*options)

type options struct {
	global bool
}

// WithGlobal 同时注册为全局 MeterProvider，供 otelgorm 等三方插件使用
func WithGlobal() Option {
	return func(o *options) {
		o.global = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
