// Package db 在 gorm 连接器之上提供数据库组件：
// clog 适配的 SQL 日志、慢查询告警、OpenTelemetry 追踪插件和事务封装。
//
// db 组件借用连接器的连接，不负责连接的生命周期：
//
//	conn, _ := connector.NewSQLite(&connector.SQLiteConfig{Path: "./weather.db"})
//	defer conn.Close()
//	_ = conn.Connect(ctx)
//
//	database, _ := db.New(conn, &db.Config{SlowThreshold: 200 * time.Millisecond},
//		db.WithLogger(logger), db.WithTracing(tp))
//
//	var rec weather.Record
//	err := database.DB(ctx).Where("city = ?", "Paris").Take(&rec).Error
//
// 追踪以 gorm 插件的形式在构造时组合，所有经由 DB(ctx) 的查询都会产生 span，
// 调用方无需感知。
package db

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"

	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/xerrors"
)

// DB 数据库组件的核心能力
type DB interface {
	// DB 返回绑定 ctx 的 *gorm.DB，业务查询直接使用
	DB(ctx context.Context) *gorm.DB

	// Transaction 执行事务，fn 中的 tx 仅在当前事务范围内有效
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error

	// Close 释放组件自身资源，不关闭连接器
	Close() error
}

// GormConnector MySQL 与 SQLite 连接器都满足此接口
type GormConnector interface {
	connector.TypedConnector[*gorm.DB]
}

type database struct {
	client *gorm.DB
}

// New 创建数据库组件，conn 必须已经 Connect
func New(conn GormConnector, cfg *Config, opts ...Option) (DB, error) {
	if conn == nil || conn.GetClient() == nil {
		return nil, xerrors.Wrap(connector.ErrNotConnected, "db")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	opt := applyOptions(opts...)
	client := conn.GetClient()

	if opt.tracing {
		plugin := otelgorm.NewPlugin(
			otelgorm.WithTracerProvider(opt.tracerProvider),
			otelgorm.WithDBName(conn.Name()),
		)
		if err := client.Use(plugin); err != nil && !xerrors.Is(err, gorm.ErrRegistered) {
			return nil, xerrors.Wrapf(err, "db[%s]: register tracing plugin", conn.Name())
		}
	}

	client = client.Session(&gorm.Session{
		Logger: newGormLogger(opt.logger, cfg),
	})

	return &database{client: client}, nil
}

func (d *database) DB(ctx context.Context) *gorm.DB {
	return d.client.WithContext(ctx)
}

func (d *database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return d.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
}

func (d *database) Close() error {
	return nil
}
