package city

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/internal/bootstrap"
	"github.com/ceyewan/cityweather/xerrors"
)

// OpenStore 按 cfg.Driver 创建 Store。SQLite 模式下自动建表。
func OpenStore(ctx context.Context, cfg *StoreConfig, logger clog.Logger) (Store, error) {
	cfg.setDefaults()
	opts := []Option{WithLogger(logger)}

	var store Store
	switch cfg.Driver {
	case DriverRedis:
		conn, err := connector.NewRedis(&cfg.Redis,
			connector.WithLogger(logger), connector.WithTracing(otel.GetTracerProvider()))
		if err != nil {
			return nil, err
		}
		if err := conn.Connect(ctx); err != nil {
			return nil, err
		}
		store = &ownedStore{Store: NewRedisStore(conn, cfg, opts...), conn: conn}
	default:
		database, err := bootstrap.OpenDatabase(ctx, cfg.database(), logger)
		if err != nil {
			return nil, err
		}
		gs := NewGormStore(database, cfg, opts...)
		if database.Driver == DriverSQLite {
			if err := gs.AutoMigrate(ctx); err != nil {
				_ = gs.Close()
				return nil, err
			}
		}
		store = gs
	}

	if err := Seed(ctx, store, cfg.Seed); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// ownedStore 关闭 Store 时一并关闭其独占的连接器
type ownedStore struct {
	Store
	conn connector.Connector
}

func (s *ownedStore) Close() error {
	return xerrors.Join(s.Store.Close(), s.conn.Close())
}

// Seed 写入初始城市，已存在的跳过
func Seed(ctx context.Context, store Store, seed []map[string]any) error {
	for i, raw := range seed {
		c, err := cityFromMap(raw)
		if err != nil {
			return xerrors.Wrapf(err, "store.seed[%d]", i)
		}
		if _, err := store.Create(ctx, c); err != nil && !xerrors.Is(err, ErrDuplicateKey) {
			return xerrors.Wrapf(err, "store.seed[%d]", i)
		}
	}
	return nil
}

func cityFromMap(raw map[string]any) (*City, error) {
	name, ok := raw["name"].(string)
	if !ok {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "name must be a string")
	}
	c := &City{Name: name}
	for k, v := range raw {
		if k == "name" {
			continue
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]any, len(raw)-1)
		}
		c.Attributes[k] = v
	}
	return c, c.Validate()
}

// Run 启动 city 服务并阻塞到 ctx 取消
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

// NewServer 打开存储、挂载路由，返回完整的 HTTP 入口。存储的关闭登记在 app 的退出流程中。
func NewServer(ctx context.Context, app *bootstrap.App, cfg *AppConfig) (*gin.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, &cfg.Store, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("open city store: %w", err)
	}
	app.OnClose(func(context.Context) error { return store.Close() })

	if cfg.Events.Enabled {
		pub, closePub, err := openPublisher(ctx, &cfg.Events, app.Logger)
		if err != nil {
			return nil, err
		}
		app.OnClose(func(context.Context) error { return closePub() })
		store = WithEvents(store, pub, WithLogger(app.Logger))
	}

	r, err := app.Router()
	if err != nil {
		return nil, err
	}
	NewHandler(store, &cfg.Cities, app.Registrar, WithLogger(app.Logger)).Register(r)
	return r, nil
}

func openPublisher(ctx context.Context, cfg *EventsConfig, logger clog.Logger) (Publisher, func() error, error) {
	conn, err := connector.NewNATS(&cfg.NATS, connector.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, nil, err
	}
	pub, err := NewNATSPublisher(conn, cfg.Subject)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return pub, conn.Close, nil
}
