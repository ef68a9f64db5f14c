package registry

import "time"

const (
	DriverConsul = "consul"
	DriverEtcd   = "etcd"
)

// Config 注册中心配置
type Config struct {
	// Driver consul|etcd (默认: consul)
	Driver string `mapstructure:"driver"`
	// Host 注册中心地址 (默认: localhost)
	Host string `mapstructure:"host"`
	// Port 注册中心端口 (默认: consul 8500，etcd 2379)
	Port int `mapstructure:"port"`
	// Scheme consul HTTP API 协议 (默认: http)
	Scheme string `mapstructure:"scheme"`
	// Token consul ACL token
	Token string `mapstructure:"token"`

	// Timeout 单次启动注册（含重试）的总时限 (默认: 10s)
	Timeout time.Duration `mapstructure:"timeout"`

	Retry       RetryConfig       `mapstructure:"retry"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`

	// Namespace etcd key 前缀 (默认: /services)
	Namespace string `mapstructure:"namespace"`
	// TTL etcd 租约时长 (默认: 30s)
	TTL time.Duration `mapstructure:"ttl"`
}

// RetryConfig 启动注册的有界重试，MaxAttempts 为 1 表示只尝试一次
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`     // (默认: 1)
	InitialInterval time.Duration `mapstructure:"initial_interval"` // (默认: 500ms)
	MaxInterval     time.Duration `mapstructure:"max_interval"`     // (默认: 5s)
}

// HealthCheckConfig consul 针对服务自身 HTTP 端点的健康检查
type HealthCheckConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`             // (默认: /health)
	Interval        time.Duration `mapstructure:"interval"`         // (默认: 10s)
	Timeout         time.Duration `mapstructure:"timeout"`          // (默认: 2s)
	DeregisterAfter time.Duration `mapstructure:"deregister_after"` // 持续不健康多久后自动注销 (默认: 1m)
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = DriverConsul
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		if c.Driver == DriverEtcd {
			c.Port = 2379
		} else {
			c.Port = 8500
		}
	}
	if c.Scheme == "" {
		c.Scheme = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = 500 * time.Millisecond
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = 5 * time.Second
	}
	if c.HealthCheck.Path == "" {
		c.HealthCheck.Path = "/health"
	}
	if c.HealthCheck.Interval <= 0 {
		c.HealthCheck.Interval = 10 * time.Second
	}
	if c.HealthCheck.Timeout <= 0 {
		c.HealthCheck.Timeout = 2 * time.Second
	}
	if c.HealthCheck.DeregisterAfter <= 0 {
		c.HealthCheck.DeregisterAfter = time.Minute
	}
	if c.Namespace == "" {
		c.Namespace = "/services"
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
}
