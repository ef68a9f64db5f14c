// Package testkit 为各组件测试提供公共依赖：日志、指标、唯一 ID 以及外部服务连接器。
//
// SQLite 使用内存库，每次调用相互隔离；Redis、Etcd、NATS、MySQL 连接本地服务，
// 不可达时 t.Skip，地址可通过环境变量覆盖。
package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
)

// Kit 包含通用的测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
}

// NewKit 返回一个包含默认依赖的测试工具包
func NewKit(t *testing.T) *Kit {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return &Kit{
		Ctx:    ctx,
		Logger: NewLogger(),
		Meter:  NewMeter(),
	}
}

// NewLogger 返回测试用 logger，TESTKIT_LOG=1 时输出到 stderr，否则丢弃
func NewLogger() clog.Logger {
	if os.Getenv("TESTKIT_LOG") == "" {
		return clog.Discard()
	}
	return clog.NewWriter(os.Stderr, "debug")
}

// NewMeter 返回测试用 meter，拥有独立的 Prometheus Registry
func NewMeter() metrics.Meter {
	meter, err := metrics.New(&metrics.Config{Enabled: true, ServiceName: "test"})
	if err != nil {
		return metrics.Discard()
	}
	return meter
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)
// 用于生成唯一的 Key、库名或命名空间，避免测试间数据冲突
func NewID() string {
	return uuid.New().String()[0:8]
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
