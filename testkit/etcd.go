package testkit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ceyewan/cityweather/connector"
)

// GetEtcdConfig 返回 Etcd 测试配置，默认 localhost:2379，可通过 TESTKIT_ETCD_ENDPOINTS 覆盖（逗号分隔）
func GetEtcdConfig() *connector.EtcdConfig {
	return &connector.EtcdConfig{
		Name:        "test-etcd",
		Endpoints:   strings.Split(envOr("TESTKIT_ETCD_ENDPOINTS", "localhost:2379"), ","),
		DialTimeout: 2 * time.Second,
	}
}

// GetEtcdConnector 获取 Etcd 连接器，不可达时跳过测试
func GetEtcdConnector(t *testing.T) connector.EtcdConnector {
	t.Helper()
	conn, err := connector.NewEtcd(GetEtcdConfig(), connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create etcd connector: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Connect(ctx); err != nil {
		t.Skipf("etcd not available: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
