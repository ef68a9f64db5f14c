package registry

import (
	"fmt"

	"github.com/ceyewan/cityweather/xerrors"
)

var (
	// ErrInvalidDescriptor 描述符字段不合法，不会发起 RPC
	ErrInvalidDescriptor = xerrors.Wrap(xerrors.ErrInvalidInput, "registry: invalid service descriptor")

	// ErrUnknownDriver 配置了不支持的注册中心实现
	ErrUnknownDriver = xerrors.Wrap(xerrors.ErrInvalidInput, "registry: unknown driver")

	// ErrClosed 客户端已关闭
	ErrClosed = xerrors.Wrap(xerrors.ErrUnavailable, "registry: client closed")
)

// RegistrationError 注册中心不可达或拒绝注册。非致命，记录后进程继续启动。
type RegistrationError struct {
	ServiceID string
	Attempts  int
	Cause     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registry: register %s failed after %d attempt(s): %v", e.ServiceID, e.Attempts, e.Cause)
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}
