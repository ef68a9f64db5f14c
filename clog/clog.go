// Package clog 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 层级命名空间，每个组件通过 WithNamespace 区分自己的日志
//   - 从 Context 提取 trace_id、span_id、request_id 等字段
//   - 运行时调整日志级别（配置热更新时使用）
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "info", Format: "console", Output: "stdout"})
//	logger.Info("service started", clog.Int("port", 8080))
//
// 组件内部：
//
//	logger = logger.WithNamespace("registry")
//	logger.InfoContext(ctx, "service registered", clog.String("service_id", id))
package clog

import (
	"fmt"
	"io"
)

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用开发环境默认配置。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return newLogger(config, applyOptions(opts...))
}

// Must 与 New 相同，创建失败时 panic。仅用于程序入口。
func Must(config *Config, opts ...Option) Logger {
	l, err := New(config, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// NewWriter 创建写入指定 io.Writer 的 Logger，测试场景常用
func NewWriter(w io.Writer, level string, opts ...Option) Logger {
	opts = append([]Option{WithWriter(w)}, opts...)
	return Must(&Config{Level: level, Format: "json", Output: "stdout"}, opts...)
}
