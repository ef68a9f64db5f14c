package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/db"
	"github.com/ceyewan/cityweather/xerrors"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DatabaseConfig 关系型存储配置
type DatabaseConfig struct {
	// Driver sqlite|mysql (默认: sqlite)
	Driver string                 `mapstructure:"driver"`
	SQLite connector.SQLiteConfig `mapstructure:"sqlite"`
	MySQL  connector.MySQLConfig  `mapstructure:"mysql"`
	DB     db.Config              `mapstructure:"db"`
}

// Database 已连接的 db 组件及其连接器，实现 db.DB。
// 与 db.DB 不同，Close 会同时关闭连接器。
type Database struct {
	inner  db.DB
	Conn   db.GormConnector
	Driver string
}

var _ db.DB = (*Database)(nil)

// DB 返回绑定 ctx 的 *gorm.DB
func (d *Database) DB(ctx context.Context) *gorm.DB {
	return d.inner.DB(ctx)
}

// Transaction 在事务中执行 fn
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return d.inner.Transaction(ctx, fn)
}

// Close 释放 db 组件并关闭连接器
func (d *Database) Close() error {
	return errors.Join(d.inner.Close(), d.Conn.Close())
}

// OpenDatabase 创建连接器、建立连接并组合 otelgorm 追踪插件
func OpenDatabase(ctx context.Context, cfg *DatabaseConfig, logger clog.Logger) (*Database, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}

	var (
		conn db.GormConnector
		err  error
	)
	switch cfg.Driver {
	case DriverSQLite:
		if err := ensureDir(cfg.SQLite.Path); err != nil {
			return nil, err
		}
		conn, err = connector.NewSQLite(&cfg.SQLite, connector.WithLogger(logger))
	case DriverMySQL:
		conn, err = connector.NewMySQL(&cfg.MySQL, connector.WithLogger(logger))
	default:
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("unknown database driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}

	database, err := db.New(conn, &cfg.DB, db.WithLogger(logger), db.WithTracing(otel.GetTracerProvider()))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Database{inner: database, Conn: conn, Driver: cfg.Driver}, nil
}

// ensureDir 为文件形式的 SQLite 路径创建父目录，DSN 与内存库跳过
func ensureDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return xerrors.Wrapf(err, "create sqlite dir for %s", path)
	}
	return nil
}
