// Package xerrors 为各组件提供统一的错误处理约定：
// 通用哨兵错误、带上下文的包装、机器可读错误码以及多错误合并。
//
// 组件内部的错误应当 Wrap 到哨兵错误上，调用方通过 Is 判断类别，
// 而不是比较错误字符串。
package xerrors

import (
	"errors"
	"fmt"
)

// 通用哨兵错误，组件的领域错误应 Wrap 到其中之一
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTimeout       = errors.New("timeout")
	ErrUnavailable   = errors.New("unavailable")
	ErrConflict      = errors.New("conflict")
	ErrCanceled      = errors.New("canceled")
	ErrInternal      = errors.New("internal error")
)

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Wrap 用上下文信息包装错误，保留错误链。err 为 nil 时返回 nil。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。err 为 nil 时返回 nil。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Must 如果 err 不为 nil，则 panic。仅用于初始化阶段。
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}
