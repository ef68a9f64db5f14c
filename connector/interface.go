// Package connector 管理外部依赖的连接生命周期：Redis、MySQL、SQLite、Etcd、NATS。
//
// 约定：
//   - NewXXX() 只校验配置、构造连接器，Connect() 才真正建立连接
//   - Connect() 幂等，可安全重复调用
//   - 组件（db、registry、city store）只借用连接器，由应用层负责 Close()
//
// 基本使用：
//
//	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:6379"},
//		connector.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//	if err := conn.Connect(ctx); err != nil {
//		return err
//	}
//	rdb := conn.GetClient()
package connector

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/gorm"
)

// Connector 所有连接器的通用行为，方法均并发安全
type Connector interface {
	// Connect 建立连接，幂等
	Connect(ctx context.Context) error

	// Close 关闭连接并释放资源，幂等
	Close() error

	// HealthCheck 主动检查连接，并刷新 IsHealthy 的缓存结果
	HealthCheck(ctx context.Context) error

	// IsHealthy 返回最近一次检查的结果，不阻塞
	IsHealthy() bool

	// Name 连接实例名称，用于日志与指标
	Name() string
}

// TypedConnector 提供类型安全的客户端访问。Connect 之前可能返回 nil。
type TypedConnector[T any] interface {
	Connector
	GetClient() T
}

type RedisConnector interface {
	TypedConnector[*redis.Client]
}

type MySQLConnector interface {
	TypedConnector[*gorm.DB]
}

type SQLiteConnector interface {
	TypedConnector[*gorm.DB]
}

type EtcdConnector interface {
	TypedConnector[*clientv3.Client]
}

type NATSConnector interface {
	TypedConnector[*nats.Conn]
}
