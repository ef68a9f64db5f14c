package metrics

// Config 指标配置
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
	// Path 抓取路径，由服务自行挂载 (默认: "/metrics")
	Path string `mapstructure:"path"`
	// EnableRuntime 采集 Go 运行时指标（GC、goroutine、内存）
	EnableRuntime bool `mapstructure:"enable_runtime"`
}

// NewDevDefaultConfig 开发环境默认配置
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:       true,
		ServiceName:   serviceName,
		Version:       "dev",
		Path:          "/metrics",
		EnableRuntime: true,
	}
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "unknown"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}
