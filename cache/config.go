package cache

import "time"

// Config 进程内缓存配置
type Config struct {
	// Name 缓存名称，用于日志与指标标签 (默认: "default")
	Name string `mapstructure:"name"`
	// Capacity 最大条目数 (默认: 10000)
	Capacity int `mapstructure:"capacity"`
	// TTL 写入后过期时间 (默认: 1m)
	TTL time.Duration `mapstructure:"ttl"`
	// LoadTimeout 共享回源的时限。回源不随任何单个调用方取消 (默认: 5s)
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Capacity <= 0 {
		c.Capacity = 10000
	}
	if c.TTL <= 0 {
		c.TTL = time.Minute
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 5 * time.Second
	}
}
