package city

import (
	"context"
	"fmt"
	"iter"

	"github.com/ceyewan/cityweather/xerrors"
)

// Store 城市集合的存储适配
type Store interface {
	// StreamAll 按写入顺序惰性产出全部城市。每次调用重新查询，不保证快照隔离；
	// 消费方停止迭代后不再读取后续数据。
	StreamAll(ctx context.Context) iter.Seq2[*City, error]

	// FindByName 不存在时返回 nil, nil
	FindByName(ctx context.Context, name string) (*City, error)

	// Create 名称已存在时返回 ErrDuplicateKey
	Create(ctx context.Context, c *City) (*City, error)

	// DeleteByName 不存在时静默成功
	DeleteByName(ctx context.Context, name string) error

	Close() error
}

// ErrDuplicateKey 名称已存在
var ErrDuplicateKey = xerrors.Wrap(xerrors.ErrAlreadyExists, "city: duplicate name")

// StoreError 传输或驱动层错误
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("city store %s: %v", e.Op, e.Cause)
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
