package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/ceyewan/cityweather/connector"
)

// GetNATSConfig 返回 NATS 测试配置，默认 nats://localhost:4222，可通过 TESTKIT_NATS_URL 覆盖
func GetNATSConfig() *connector.NATSConfig {
	return &connector.NATSConfig{
		Name:          "test-nats",
		URL:           envOr("TESTKIT_NATS_URL", "nats://localhost:4222"),
		Timeout:       time.Second,
		MaxReconnects: 1,
		ReconnectWait: 100 * time.Millisecond,
	}
}

// GetNATSConnector 获取 NATS 连接器，不可达时跳过测试
func GetNATSConnector(t *testing.T) connector.NATSConnector {
	t.Helper()
	conn, err := connector.NewNATS(GetNATSConfig(), connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create nats connector: %v", err)
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Skipf("nats not available: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
