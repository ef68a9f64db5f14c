// Package weather 实现按城市名查询天气的只读服务。
//
// 查询链路：进程内缓存 → 熔断器 → 阻塞任务池 → 关系型存储。
// 请求协程只在 ctx 上等待结果，慢查询占用的是任务池名额。
package weather

import (
	"context"
	"fmt"
)

// Record 天气记录，以城市名为主键
type Record struct {
	City        string `json:"city" gorm:"primaryKey;size:255"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TableName gorm 表名
func (Record) TableName() string {
	return "weather"
}

// Repository 天气数据源
type Repository interface {
	// FindByCity 不存在时返回 nil, nil
	FindByCity(ctx context.Context, city string) (*Record, error)

	Close() error
}

// StoreError 传输或驱动层错误
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("weather store %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Cause: err}
}
