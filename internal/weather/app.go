package weather

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/internal/bootstrap"
)

// OpenRepository 打开关系型存储。SQLite 模式下自动建表；seed 非空时写入。
func OpenRepository(ctx context.Context, cfg *StoreConfig, logger clog.Logger) (*GormRepository, error) {
	database, err := bootstrap.OpenDatabase(ctx, &cfg.DatabaseConfig, logger)
	if err != nil {
		return nil, err
	}
	repo := NewGormRepository(database)

	if database.Driver == bootstrap.DriverSQLite {
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}
	if err := repo.Upsert(ctx, cfg.Seed...); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// Run 启动 weather 服务并阻塞到 ctx 取消
func Run(ctx context.Context, cfg *AppConfig, opts ...bootstrap.Option) error {
	app, err := bootstrap.New(&cfg.Config, opts...)
	if err != nil {
		return err
	}
	handler, err := NewServer(ctx, app, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx, handler)
}

// NewServer 打开存储、组装查询链路并挂载路由
func NewServer(ctx context.Context, app *bootstrap.App, cfg *AppConfig) (*gin.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := OpenRepository(ctx, &cfg.Store, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("open weather store: %w", err)
	}
	svc, err := NewService(repo, &cfg.Weather, WithLogger(app.Logger), WithMeter(app.Meter))
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	app.OnClose(svc.Close)

	r, err := app.Router()
	if err != nil {
		return nil, err
	}
	NewHandler(svc, app.Registrar).Register(r)
	return r, nil
}
