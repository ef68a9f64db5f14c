package city

import (
	"fmt"

	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/db"
	"github.com/ceyewan/cityweather/internal/bootstrap"
	"github.com/ceyewan/cityweather/xerrors"
)

// 存储驱动
const (
	DriverSQLite = bootstrap.DriverSQLite
	DriverMySQL  = bootstrap.DriverMySQL
	DriverRedis  = "redis"
)

// CitiesConfig 列表接口配置
type CitiesConfig struct {
	// PageSize 分页模式下每页条数 (默认: 20)
	PageSize int `mapstructure:"page_size"`
	// ListMode paginated|all (默认: paginated)
	ListMode string `mapstructure:"list_mode"`
}

func (c *CitiesConfig) setDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.ListMode == "" {
		c.ListMode = ListModePaginated
	}
}

func (c *CitiesConfig) validate() error {
	switch c.ListMode {
	case ListModePaginated, ListModeAll:
		return nil
	default:
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "cities.list_mode %q", c.ListMode)
	}
}

// StoreConfig 存储配置
type StoreConfig struct {
	// Driver sqlite|mysql|redis (默认: sqlite)
	Driver string                 `mapstructure:"driver"`
	SQLite connector.SQLiteConfig `mapstructure:"sqlite"`
	MySQL  connector.MySQLConfig  `mapstructure:"mysql"`
	Redis  connector.RedisConfig  `mapstructure:"redis"`
	DB     db.Config              `mapstructure:"db"`

	// BatchSize StreamAll 每次从存储读取的条数 (默认: 100)
	BatchSize int `mapstructure:"batch_size"`
	// Prefix Redis 键前缀 (默认: "city:")
	Prefix string `mapstructure:"prefix"`

	// Seed 启动时写入的城市，已存在的跳过
	Seed []map[string]any `mapstructure:"seed"`
}

func (c *StoreConfig) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Prefix == "" {
		c.Prefix = "city:"
	}
}

func (c *StoreConfig) database() *bootstrap.DatabaseConfig {
	return &bootstrap.DatabaseConfig{
		Driver: c.Driver,
		SQLite: c.SQLite,
		MySQL:  c.MySQL,
		DB:     c.DB,
	}
}

// EventsConfig 变更事件配置
type EventsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Subject 事件主题前缀 (默认: "cities")
	Subject string               `mapstructure:"subject"`
	NATS    connector.NATSConfig `mapstructure:"nats"`
}

// AppConfig city 服务完整配置
type AppConfig struct {
	bootstrap.Config `mapstructure:",squash"`

	Cities CitiesConfig `mapstructure:"cities"`
	Store  StoreConfig  `mapstructure:"store"`
	Events EventsConfig `mapstructure:"events"`
}

// Validate 补全默认值并校验
func (c *AppConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	c.Cities.setDefaults()
	if err := c.Cities.validate(); err != nil {
		return err
	}
	c.Store.setDefaults()
	switch c.Store.Driver {
	case DriverSQLite, DriverMySQL, DriverRedis:
	default:
		return xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("store.driver %q", c.Store.Driver))
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "cities"
	}
	return nil
}

// Defaults city 服务默认配置
func Defaults() map[string]any {
	d := bootstrap.Defaults("city-service", 8080)
	d["cities.page_size"] = 20
	d["cities.list_mode"] = ListModePaginated
	d["store.driver"] = DriverSQLite
	d["store.sqlite.path"] = "./data/city.db"
	d["store.batch_size"] = 100
	d["store.prefix"] = "city:"
	d["events.enabled"] = false
	d["events.subject"] = "cities"
	return d
}
