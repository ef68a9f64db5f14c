package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/ceyewan/cityweather/connector"
)

// GetRedisConfig 返回 Redis 测试配置，默认 localhost:6379，可通过 TESTKIT_REDIS_ADDR 覆盖
func GetRedisConfig() *connector.RedisConfig {
	return &connector.RedisConfig{
		Name:        "test-redis",
		Addr:        envOr("TESTKIT_REDIS_ADDR", "localhost:6379"),
		DB:          1, // 避免与默认的 DB 0 冲突
		DialTimeout: time.Second,
	}
}

// GetRedisConnector 获取 Redis 连接器，不可达时跳过测试
func GetRedisConnector(t *testing.T) connector.RedisConnector {
	t.Helper()
	conn, err := connector.NewRedis(GetRedisConfig(), connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create redis connector: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Connect(ctx); err != nil {
		_ = conn.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
