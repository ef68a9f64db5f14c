package registry

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"

	consulapi "github.com/hashicorp/consul/api"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/xerrors"
)

type consulClient struct {
	cfg    *Config
	api    *consulapi.Client
	logger clog.Logger
	closed atomic.Bool
}

// NewConsulClient 创建基于 Consul Agent HTTP API 的客户端
func NewConsulClient(cfg *Config, opts ...Option) (Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)

	api, err := consulapi.NewClient(&consulapi.Config{
		Address: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Scheme:  cfg.Scheme,
		Token:   cfg.Token,
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "registry: create consul client")
	}

	return &consulClient{
		cfg:    cfg,
		api:    api,
		logger: o.logger.With(clog.String("driver", DriverConsul)),
	}, nil
}

func (c *consulClient) Register(ctx context.Context, desc *ServiceDescriptor) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	reg := &consulapi.AgentServiceRegistration{
		ID:      desc.ServiceID(),
		Name:    desc.Name,
		Address: desc.Address,
		Port:    desc.Port,
		Tags:    desc.Tags,
		Meta:    desc.Metadata,
	}
	if hc := c.cfg.HealthCheck; hc.Enabled {
		checkURL := url.URL{Scheme: "http", Host: desc.Endpoint(), Path: hc.Path}
		reg.Check = &consulapi.AgentServiceCheck{
			HTTP:                           checkURL.String(),
			Interval:                       hc.Interval.String(),
			Timeout:                        hc.Timeout.String(),
			DeregisterCriticalServiceAfter: hc.DeregisterAfter.String(),
		}
	}

	if err := c.api.Agent().ServiceRegisterOpts(reg, consulapi.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return xerrors.Wrapf(xerrors.ErrUnavailable, "consul register %s: %v", reg.ID, err)
	}

	c.logger.InfoContext(ctx, "service registered",
		clog.String("service_id", reg.ID),
		clog.String("service_name", reg.Name),
		clog.String("endpoint", desc.Endpoint()))
	return nil
}

func (c *consulClient) Deregister(ctx context.Context, serviceID string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	if err := c.api.Agent().ServiceDeregisterOpts(serviceID, q); err != nil {
		return xerrors.Wrapf(xerrors.ErrUnavailable, "consul deregister %s: %v", serviceID, err)
	}
	c.logger.InfoContext(ctx, "service deregistered", clog.String("service_id", serviceID))
	return nil
}

func (c *consulClient) Driver() string {
	return DriverConsul
}

func (c *consulClient) Close() error {
	c.closed.Store(true)
	return nil
}
