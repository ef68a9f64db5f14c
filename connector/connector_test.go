package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidation(t *testing.T) {
	_, err := NewRedis(&RedisConfig{})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewMySQL(&MySQLConfig{Host: "127.0.0.1"})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewSQLite(&SQLiteConfig{Path: "  "})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewEtcd(&EtcdConfig{})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewNATS(nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConfigDefaults(t *testing.T) {
	redisCfg := &RedisConfig{Addr: "127.0.0.1:6379"}
	require.NoError(t, redisCfg.validate())
	assert.Equal(t, "default", redisCfg.Name)
	assert.Equal(t, 10, redisCfg.PoolSize)

	mysqlCfg := &MySQLConfig{Host: "db", Username: "root", Database: "weather"}
	require.NoError(t, mysqlCfg.validate())
	assert.Equal(t, 3306, mysqlCfg.Port)
	assert.Equal(t, "utf8mb4", mysqlCfg.Charset)

	etcdCfg := &EtcdConfig{Endpoints: []string{"127.0.0.1:2379"}}
	require.NoError(t, etcdCfg.validate())
	assert.Equal(t, 5*time.Second, etcdCfg.DialTimeout)
}

func TestSQLiteConnector_Lifecycle(t *testing.T) {
	conn, err := NewSQLite(&SQLiteConfig{Name: "lifecycle", Path: "file:lifecycle?mode=memory&cache=shared"})
	require.NoError(t, err)
	assert.Nil(t, conn.GetClient(), "Connect 之前没有客户端")
	assert.ErrorIs(t, conn.HealthCheck(context.Background()), ErrNotConnected)

	ctx := context.Background()
	require.NoError(t, conn.Connect(ctx))
	require.NoError(t, conn.Connect(ctx), "Connect 幂等")
	assert.True(t, conn.IsHealthy())
	assert.Equal(t, "lifecycle", conn.Name())

	var one int
	require.NoError(t, conn.GetClient().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "Close 幂等")
	assert.False(t, conn.IsHealthy())
}

func TestRedisConnector_Unreachable(t *testing.T) {
	conn, err := NewRedis(&RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, conn.Connect(ctx), ErrConnection)
	assert.False(t, conn.IsHealthy())
}
