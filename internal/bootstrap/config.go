package bootstrap

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/config"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/ratelimit"
	"github.com/ceyewan/cityweather/registry"
	"github.com/ceyewan/cityweather/trace"
	"github.com/ceyewan/cityweather/xerrors"
)

// ServiceConfig 服务自身的网络位置
type ServiceConfig struct {
	Name string   `mapstructure:"name"`
	Host string   `mapstructure:"host"` // (默认: localhost)
	Port int      `mapstructure:"port"`
	Tags []string `mapstructure:"tags"`
	// ShutdownTimeout 优雅退出的总时限 (默认: 15s)
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 监听地址
func (c *ServiceConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Descriptor 从当前配置构造注册描述符
func (c *ServiceConfig) Descriptor() *registry.ServiceDescriptor {
	return &registry.ServiceDescriptor{
		Name:    c.Name,
		Address: c.Host,
		Port:    c.Port,
		Tags:    c.Tags,
	}
}

// Config 两个服务共用的基础配置，业务配置以 mapstructure:",squash" 嵌入
type Config struct {
	Service   ServiceConfig    `mapstructure:"service"`
	Log       clog.Config      `mapstructure:"log"`
	Metrics   metrics.Config   `mapstructure:"metrics"`
	Trace     trace.Config     `mapstructure:"trace"`
	Registry  registry.Config  `mapstructure:"registry"`
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
}

func (c *Config) setDefaults() {
	if c.Service.Host == "" {
		c.Service.Host = "localhost"
	}
	if c.Service.ShutdownTimeout <= 0 {
		c.Service.ShutdownTimeout = 15 * time.Second
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Service.Name
	}
	if c.Trace.ServiceName == "" {
		c.Trace.ServiceName = c.Service.Name
	}
}

// Validate 校验基础配置
func (c *Config) Validate() error {
	c.setDefaults()
	if c.Service.Name == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "service.name is required")
	}
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "service.port %d out of range", c.Service.Port)
	}
	return nil
}

// Defaults 基础配置默认值，注册到 viper 后环境变量才能覆盖对应 key
func Defaults(name string, port int) map[string]any {
	return map[string]any{
		"service.name":                  name,
		"service.host":                  "localhost",
		"service.port":                  port,
		"service.shutdown_timeout":      "15s",
		"log.level":                     "info",
		"log.format":                    "json",
		"log.output":                    "stdout",
		"metrics.enabled":               true,
		"metrics.path":                  "/metrics",
		"metrics.enable_runtime":        true,
		"trace.enabled":                 false,
		"trace.endpoint":                "localhost:4317",
		"trace.sampler":                 1.0,
		"trace.batcher":                 "batch",
		"trace.insecure":                true,
		"registry.driver":               registry.DriverConsul,
		"registry.host":                 "localhost",
		"registry.port":                 8500,
		"registry.timeout":              "10s",
		"registry.retry.max_attempts":   1,
		"registry.health_check.enabled": false,
		"ratelimit.enabled":             false,
		"ratelimit.rate":                100,
		"ratelimit.burst":               200,
	}
}

// Load 从配置文件、.env 与环境变量加载配置到 out。
// file 为空时在当前目录与 ./configs 下查找 config.yaml。
func Load(ctx context.Context, file, envPrefix string, defaults map[string]any, out any) (config.Loader, error) {
	opts := []config.Option{
		config.WithEnvPrefix(envPrefix),
		config.WithDefaults(defaults),
	}
	if file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}

	loader, err := config.Load(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := loader.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return loader, nil
}
