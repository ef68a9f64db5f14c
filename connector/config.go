package connector

import (
	"strings"
	"time"

	"github.com/ceyewan/cityweather/xerrors"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Name string `mapstructure:"name"` // 连接器名称 (默认: "default")

	Addr     string `mapstructure:"addr"`     // [必填] 如 "127.0.0.1:6379"
	Password string `mapstructure:"password"` // [可选]
	DB       int    `mapstructure:"db"`       // [可选] 数据库编号 (默认: 0)

	PoolSize     int           `mapstructure:"pool_size"`      // 连接池大小 (默认: 10)
	MinIdleConns int           `mapstructure:"min_idle_conns"` // 最小空闲连接数 (默认: 2)
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`   // (默认: 5s)
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`   // (默认: 3s)
	WriteTimeout time.Duration `mapstructure:"write_timeout"`  // (默认: 3s)
}

func (c *RedisConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

func (c *RedisConfig) validate() error {
	c.setDefaults()
	if c.Addr == "" {
		return xerrors.Wrap(ErrConfig, "redis: addr is required")
	}
	if c.DB < 0 {
		return xerrors.Wrap(ErrConfig, "redis: db must be >= 0")
	}
	return nil
}

// MySQLConfig MySQL 连接配置
type MySQLConfig struct {
	Name string `mapstructure:"name"`

	DSN      string `mapstructure:"dsn"`      // 完整 DSN，提供时忽略 Host/Port 等字段
	Host     string `mapstructure:"host"`     // [必填]
	Port     int    `mapstructure:"port"`     // (默认: 3306)
	Username string `mapstructure:"username"` // [必填]
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"` // [必填]
	Charset  string `mapstructure:"charset"`  // (默认: "utf8mb4")

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // (默认: 10)
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // (默认: 100)
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // (默认: 1h)
}

func (c *MySQLConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.Charset == "" {
		c.Charset = "utf8mb4"
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 100
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

func (c *MySQLConfig) validate() error {
	c.setDefaults()
	if c.DSN != "" {
		return nil
	}
	if c.Host == "" {
		return xerrors.Wrap(ErrConfig, "mysql: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return xerrors.Wrap(ErrConfig, "mysql: invalid port")
	}
	if c.Username == "" {
		return xerrors.Wrap(ErrConfig, "mysql: username is required")
	}
	if c.Database == "" {
		return xerrors.Wrap(ErrConfig, "mysql: database is required")
	}
	return nil
}

// SQLiteConfig SQLite 连接配置
type SQLiteConfig struct {
	Name string `mapstructure:"name"`

	// Path 数据库文件路径或 DSN，如 "./data/city.db"、"file::memory:?cache=shared"
	Path string `mapstructure:"path"`

	// MaxOpenConns 内存库需要 >1 时配合 cache=shared 使用 (默认: 1)
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

func (c *SQLiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 1
	}
}

func (c *SQLiteConfig) validate() error {
	c.setDefaults()
	if strings.TrimSpace(c.Path) == "" {
		return xerrors.Wrap(ErrConfig, "sqlite: path is required")
	}
	return nil
}

// EtcdConfig Etcd 连接配置
type EtcdConfig struct {
	Name string `mapstructure:"name"`

	Endpoints []string `mapstructure:"endpoints"` // [必填]
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`

	DialTimeout      time.Duration `mapstructure:"dial_timeout"`       // (默认: 5s)
	KeepAliveTime    time.Duration `mapstructure:"keep_alive_time"`    // (默认: 10s)
	KeepAliveTimeout time.Duration `mapstructure:"keep_alive_timeout"` // (默认: 3s)
}

func (c *EtcdConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.KeepAliveTime == 0 {
		c.KeepAliveTime = 10 * time.Second
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = 3 * time.Second
	}
}

func (c *EtcdConfig) validate() error {
	c.setDefaults()
	if len(c.Endpoints) == 0 {
		return xerrors.Wrap(ErrConfig, "etcd: endpoints are required")
	}
	return nil
}

// NATSConfig NATS 连接配置
type NATSConfig struct {
	Name string `mapstructure:"name"`

	URL      string `mapstructure:"url"` // [必填] 如 "nats://127.0.0.1:4222"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`

	Timeout       time.Duration `mapstructure:"timeout"`        // (默认: 5s)
	MaxReconnects int           `mapstructure:"max_reconnects"` // (默认: 60)
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"` // (默认: 2s)
	PingInterval  time.Duration `mapstructure:"ping_interval"`  // (默认: 2m)
}

func (c *NATSConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 60
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.PingInterval == 0 {
		c.PingInterval = 2 * time.Minute
	}
}

func (c *NATSConfig) validate() error {
	c.setDefaults()
	if c.URL == "" {
		return xerrors.Wrap(ErrConfig, "nats: url is required")
	}
	return nil
}
