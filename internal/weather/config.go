package weather

import (
	"fmt"

	"github.com/ceyewan/cityweather/breaker"
	"github.com/ceyewan/cityweather/cache"
	"github.com/ceyewan/cityweather/internal/bootstrap"
	"github.com/ceyewan/cityweather/worker"
	"github.com/ceyewan/cityweather/xerrors"
)

// ServiceConfig 查询链路配置
type ServiceConfig struct {
	Cache   cache.Config   `mapstructure:"cache"`
	Breaker breaker.Config `mapstructure:"breaker"`
	Pool    worker.Config  `mapstructure:"pool"`
}

func (c *ServiceConfig) setDefaults() {
	if c.Cache.Name == "" {
		c.Cache.Name = "weather"
	}
	if c.Pool.Name == "" {
		c.Pool.Name = "weather-lookup"
	}
}

// StoreConfig 天气存储配置
type StoreConfig struct {
	bootstrap.DatabaseConfig `mapstructure:",squash"`

	// Seed 启动时写入的记录，同名覆盖
	Seed []Record `mapstructure:"seed"`
}

// AppConfig weather 服务完整配置
type AppConfig struct {
	bootstrap.Config `mapstructure:",squash"`

	Weather ServiceConfig `mapstructure:"weather"`
	Store   StoreConfig   `mapstructure:"store"`
}

// Validate 补全默认值并校验
func (c *AppConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	c.Weather.setDefaults()
	if c.Store.Driver == "" {
		c.Store.Driver = bootstrap.DriverSQLite
	}
	switch c.Store.Driver {
	case bootstrap.DriverSQLite, bootstrap.DriverMySQL:
	default:
		return xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("store.driver %q", c.Store.Driver))
	}
	for i, rec := range c.Store.Seed {
		if rec.City == "" {
			return xerrors.Wrapf(xerrors.ErrInvalidInput, "store.seed[%d]: city is required", i)
		}
	}
	return nil
}

// Defaults weather 服务默认配置
func Defaults() map[string]any {
	d := bootstrap.Defaults("weather-service", 8081)
	d["store.driver"] = bootstrap.DriverSQLite
	d["store.sqlite.path"] = "./data/weather.db"
	d["weather.cache.capacity"] = 10000
	d["weather.cache.ttl"] = "1m"
	d["weather.cache.load_timeout"] = "5s"
	d["weather.breaker.timeout"] = "30s"
	d["weather.breaker.failure_ratio"] = 0.6
	d["weather.breaker.minimum_requests"] = 10
	d["weather.pool.size"] = 16
	return d
}
