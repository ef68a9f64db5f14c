// Package metrics 提供基于 OpenTelemetry 的指标组件，通过 Prometheus 格式暴露。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{Enabled: true, ServiceName: "city-service"})
//	if err != nil {
//		return err
//	}
//	defer meter.Shutdown(ctx)
//
//	counter, _ := meter.Counter("city_created_total", "Cities created")
//	counter.Inc(ctx, metrics.L("store", "redis"))
//
//	router.GET("/metrics", gin.WrapH(meter.Handler()))
//
// Config.Enabled 为 false 时返回 noop 实现，调用方无需判空。
package metrics

import (
	"context"
	"net/http"
)

// Meter 指标工厂
type Meter interface {
	Counter(name, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 抓取端点
	Handler() http.Handler

	// Shutdown 刷新并关闭底层 MeterProvider
	Shutdown(ctx context.Context) error
}

// Counter 只增不减的累计值
type Counter interface {
	Inc(ctx context.Context, labels ...Label)
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 可任意增减的瞬时值
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
	Inc(ctx context.Context, labels ...Label)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 值的分布，例如请求耗时
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Label 指标标签，值应保持低基数
type Label struct {
	Key   string
	Value string
}

// L 创建一个 Label
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// MetricOptions 单个指标的可选参数
type MetricOptions struct {
	Unit    string
	Buckets []float64
}

// MetricOption 指标选项
type MetricOption func(*MetricOptions)

// WithUnit 设置单位，如 "s"、"By"
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets []float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = buckets
	}
}
