package db

import "time"

// Config db 组件配置
type Config struct {
	// SlowThreshold 超过该耗时的 SQL 以 warn 级别记录 (默认: 200ms)
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`

	// Silent 关闭 SQL 日志，错误与慢查询除外
	Silent bool `mapstructure:"silent"`
}

func (c *Config) setDefaults() {
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
}
