package city

import "github.com/ceyewan/cityweather/clog"

// Option city 组件选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 设置 Logger，自动追加 namespace "city"
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("city")
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
