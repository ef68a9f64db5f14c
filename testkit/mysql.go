package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ceyewan/cityweather/connector"
)

// GetMySQLConnector 使用 TESTKIT_MYSQL_DSN 连接 MySQL，未设置或不可达时跳过测试
func GetMySQLConnector(t *testing.T) connector.MySQLConnector {
	t.Helper()
	dsn := os.Getenv("TESTKIT_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TESTKIT_MYSQL_DSN not set")
	}
	conn, err := connector.NewMySQL(&connector.MySQLConfig{Name: "test-mysql", DSN: dsn},
		connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create mysql connector: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Connect(ctx); err != nil {
		t.Skipf("mysql not available: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
