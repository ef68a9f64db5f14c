package registry

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"sync/atomic"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/connector"
	"github.com/ceyewan/cityweather/xerrors"
)

// leaseKeepAlive 单个实例的租约与续约协程
type leaseKeepAlive struct {
	leaseID   clientv3.LeaseID
	cancel    context.CancelFunc
	serviceID string
	closed    atomic.Bool
}

// etcdClient 以 "<namespace>/<name>/<id>" 为 key、绑定租约写入实例，后台续约
type etcdClient struct {
	conn     connector.EtcdConnector
	ownsConn bool
	cfg      *Config
	logger   clog.Logger

	keepAlives map[string]*leaseKeepAlive
	mu         sync.Mutex
	wg         sync.WaitGroup
	closed     atomic.Bool
}

// NewEtcdClient 借用已有的 Etcd 连接器创建客户端，连接器由调用方关闭
func NewEtcdClient(conn connector.EtcdConnector, cfg *Config, opts ...Option) (Client, error) {
	if conn == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "registry: etcd connector is required")
	}
	if cfg == nil {
		cfg = &Config{Driver: DriverEtcd}
	}
	cfg.setDefaults()
	return newEtcdClient(conn, cfg, false, opts...), nil
}

func newEtcdClient(conn connector.EtcdConnector, cfg *Config, ownsConn bool, opts ...Option) *etcdClient {
	o := applyOptions(opts...)
	return &etcdClient{
		conn:       conn,
		ownsConn:   ownsConn,
		cfg:        cfg,
		logger:     o.logger.With(clog.String("driver", DriverEtcd)),
		keepAlives: make(map[string]*leaseKeepAlive),
	}
}

func (r *etcdClient) buildKey(name, id string) string {
	return path.Join(r.cfg.Namespace, name, id)
}

func (r *etcdClient) client(ctx context.Context) (*clientv3.Client, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if err := r.conn.Connect(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnavailable, err.Error())
	}
	cli := r.conn.GetClient()
	if cli == nil {
		return nil, xerrors.Wrap(xerrors.ErrUnavailable, "registry: etcd client not connected")
	}
	return cli, nil
}

func (r *etcdClient) Register(ctx context.Context, desc *ServiceDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	cli, err := r.client(ctx)
	if err != nil {
		return err
	}

	serviceID := desc.ServiceID()
	value, err := json.Marshal(desc)
	if err != nil {
		return xerrors.Wrap(err, "marshal service descriptor")
	}

	lease, err := cli.Grant(ctx, int64(r.cfg.TTL.Seconds()))
	if err != nil {
		r.logger.Error("failed to grant lease", clog.String("service_id", serviceID), clog.Error(err))
		return xerrors.Wrapf(xerrors.ErrUnavailable, "grant lease: %v", err)
	}

	key := r.buildKey(desc.Name, serviceID)
	if _, err := cli.Put(ctx, key, string(value), clientv3.WithLease(lease.ID)); err != nil {
		r.revoke(ctx, cli, lease.ID, serviceID)
		r.logger.Error("failed to put service", clog.String("key", key), clog.Error(err))
		return xerrors.Wrapf(xerrors.ErrUnavailable, "put service: %v", err)
	}

	kaCtx, kaCancel := context.WithCancel(context.Background())
	kaCh, err := cli.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		kaCancel()
		r.revoke(ctx, cli, lease.ID, serviceID)
		return xerrors.Wrapf(xerrors.ErrUnavailable, "keepalive: %v", err)
	}

	ka := &leaseKeepAlive{leaseID: lease.ID, cancel: kaCancel, serviceID: serviceID}

	// 同一 ID 重复注册：新租约生效后撤销旧租约，key 已被新值覆盖
	r.mu.Lock()
	old := r.keepAlives[serviceID]
	r.keepAlives[serviceID] = ka
	r.mu.Unlock()
	if old != nil {
		old.closed.Store(true)
		old.cancel()
		r.revoke(ctx, cli, old.leaseID, serviceID)
	}

	r.wg.Add(1)
	go r.monitorKeepAlive(ka, kaCh)

	r.logger.InfoContext(ctx, "service registered",
		clog.String("service_id", serviceID),
		clog.String("key", key),
		clog.Duration("ttl", r.cfg.TTL))
	return nil
}

func (r *etcdClient) monitorKeepAlive(ka *leaseKeepAlive, ch <-chan *clientv3.LeaseKeepAliveResponse) {
	defer r.wg.Done()
	for range ch {
	}
	if !ka.closed.Load() {
		r.logger.Warn("lease keepalive stopped", clog.String("service_id", ka.serviceID))
	}
}

func (r *etcdClient) revoke(ctx context.Context, cli *clientv3.Client, id clientv3.LeaseID, serviceID string) {
	if _, err := cli.Revoke(ctx, id); err != nil && !errors.Is(err, rpctypes.ErrLeaseNotFound) {
		r.logger.Error("failed to revoke lease", clog.String("service_id", serviceID), clog.Error(err))
	}
}

func (r *etcdClient) Deregister(ctx context.Context, serviceID string) error {
	cli, err := r.client(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	ka, ok := r.keepAlives[serviceID]
	delete(r.keepAlives, serviceID)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	ka.closed.Store(true)
	ka.cancel()
	if _, err := cli.Revoke(ctx, ka.leaseID); err != nil && !errors.Is(err, rpctypes.ErrLeaseNotFound) {
		return xerrors.Wrapf(xerrors.ErrUnavailable, "revoke lease: %v", err)
	}
	r.logger.InfoContext(ctx, "service deregistered", clog.String("service_id", serviceID))
	return nil
}

func (r *etcdClient) Driver() string {
	return DriverEtcd
}

// Close 停止所有续约，租约在 TTL 后由 etcd 回收
func (r *etcdClient) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.mu.Lock()
	for id, ka := range r.keepAlives {
		ka.closed.Store(true)
		ka.cancel()
		delete(r.keepAlives, id)
	}
	r.mu.Unlock()
	r.wg.Wait()

	if r.ownsConn {
		return r.conn.Close()
	}
	return nil
}
