// Package config 提供统一的配置加载能力，基于 Viper 实现。
//
// 配置优先级（高到低）：环境变量 > .env > 环境特定配置文件 > 基础配置文件 > 默认值
//
// 基本使用：
//
//	loader := config.MustLoad(
//		config.WithConfigName("config"),
//		config.WithConfigPaths(".", "./configs"),
//		config.WithEnvPrefix("CITY"),
//		config.WithDefaults(map[string]any{"service.port": 8080}),
//	)
//
//	var cfg AppConfig
//	if err := loader.Unmarshal(&cfg); err != nil {
//		panic(err)
//	}
//
// 环境变量 CITY_SERVICE_PORT 会覆盖 service.port；CITY_ENV=prod 时额外合并 config.prod.yaml。
package config

import (
	"context"
	"time"
)

// Loader 配置加载器：加载、解析和监听配置变化
type Loader interface {
	// Load 从所有来源加载配置并开启文件监听
	Load(ctx context.Context) error

	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体（mapstructure 标签）
	Unmarshal(v any) error

	UnmarshalKey(key string, v any) error

	// Watch 监听指定 key 的变化，ctx 取消后通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// ConfigFileUsed 返回实际加载的配置文件，没有则为空串
	ConfigFileUsed() string
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Source    string // "file"
	Timestamp time.Time
}

// New 创建配置加载器，尚未加载
func New(opts ...Option) Loader {
	return newLoader(opts...)
}

// Load 创建并加载配置
func Load(ctx context.Context, opts ...Option) (Loader, error) {
	l := newLoader(opts...)
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// MustLoad 与 Load 相同，失败时 panic，仅用于程序入口
func MustLoad(opts ...Option) Loader {
	l, err := Load(context.Background(), opts...)
	if err != nil {
		panic(err)
	}
	return l
}
