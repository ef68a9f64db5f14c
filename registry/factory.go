package registry

import (
	"fmt"
	"net"
	"strconv"

	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/xerrors"
)

// NewClient 按 cfg.Driver 创建注册中心客户端。构造不访问网络，注册中心此时不可达也能成功。
func NewClient(cfg *Config, opts ...Option) (Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	switch cfg.Driver {
	case DriverConsul:
		return NewConsulClient(cfg, opts...)
	case DriverEtcd:
		o := applyOptions(opts...)
		conn, err := connector.NewEtcd(&connector.EtcdConfig{
			Name:        "registry",
			Endpoints:   []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
			DialTimeout: cfg.Timeout,
		}, connector.WithLogger(o.logger))
		if err != nil {
			return nil, xerrors.Wrap(err, "registry: create etcd connector")
		}
		return newEtcdClient(conn, cfg, true, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
