// Package registry 负责服务实例在启动时向注册中心自注册。
//
// 组成：
//   - Client：注册中心 RPC 的薄封装，提供 Consul（默认）与 Etcd（租约 + 续约）两种实现
//   - Registrar：每个进程只注册一次，在独立协程上执行，失败只记录不阻断启动
//
// 基本使用：
//
//	client, err := registry.NewClient(&cfg.Registry, registry.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	registrar := registry.NewRegistrar(client, &cfg.Registry, registry.WithLogger(logger))
//	registrar.Start(ctx, &registry.ServiceDescriptor{Name: "city-service", Address: "localhost", Port: 8080})
//
//	// 健康检查等处只读查询注册状态
//	status := registrar.Status()
//
// 重复注册同一描述符的幂等性由注册中心按服务 ID upsert 保证。
package registry

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Client 注册中心客户端
type Client interface {
	// Register 注册或覆盖一个服务实例，阻塞直到注册中心确认
	Register(ctx context.Context, desc *ServiceDescriptor) error

	// Deregister 注销服务实例，实例不存在时不报错
	Deregister(ctx context.Context, serviceID string) error

	// Driver 返回实现名称，如 "consul"、"etcd"
	Driver() string

	Close() error
}

// ServiceDescriptor 描述一个服务实例的网络位置，每次注册从配置重新构造，不在本地持久化
type ServiceDescriptor struct {
	// ID 实例唯一标识，为空时由 Name/Address/Port 推导，同一实例重启后 ID 不变
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Address  string            `json:"address"`
	Port     int               `json:"port"`
	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ServiceID 返回显式 ID 或推导出的 ID
func (d *ServiceDescriptor) ServiceID() string {
	if d.ID != "" {
		return d.ID
	}
	return fmt.Sprintf("%s-%s-%d", d.Name, d.Address, d.Port)
}

// Endpoint 返回 host:port
func (d *ServiceDescriptor) Endpoint() string {
	return net.JoinHostPort(d.Address, fmt.Sprint(d.Port))
}

// Validate 检查描述符，只做语法校验，不做 DNS 解析
func (d *ServiceDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range 1-65535", ErrInvalidDescriptor, d.Port)
	}
	if !validHost(d.Address) {
		return fmt.Errorf("%w: invalid address %q", ErrInvalidDescriptor, d.Address)
	}
	return nil
}

// validHost 接受 IP 字面量或符合 RFC 1123 的主机名
func validHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
				return false
			}
		}
	}
	return true
}
