// Package bootstrap 组装两个服务共用的运行时：日志、指标、追踪、限流、
// 启动注册以及优雅退出。
package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/config"
	"github.com/ceyewan/cityweather/internal/httpx"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/ratelimit"
	"github.com/ceyewan/cityweather/registry"
	"github.com/ceyewan/cityweather/trace"
	"github.com/ceyewan/cityweather/xerrors"
)

// App 服务运行时
type App struct {
	cfg *Config

	Logger    clog.Logger
	Meter     metrics.Meter
	Registrar *registry.Registrar

	regClient     registry.Client
	limiter       ratelimit.Limiter
	traceShutdown trace.Shutdown

	mu      sync.Mutex
	closers []func(context.Context) error
}

// Option App 选项
type Option func(*App)

// WithLogger 使用外部 Logger，不再按 cfg.Log 创建
func WithLogger(l clog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithRegistryClient 使用外部注册中心客户端，测试中替换为不可达或假的实现
func WithRegistryClient(c registry.Client) Option {
	return func(a *App) {
		a.regClient = c
	}
}

// New 按配置初始化运行时组件。注册中心在这里只构造客户端，不发起连接。
func New(cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := clog.New(&cfg.Log, clog.WithStandardContext())
		if err != nil {
			return nil, xerrors.Wrap(err, "init logger")
		}
		a.Logger = logger
	}
	a.Logger = a.Logger.With(clog.String("service", cfg.Service.Name))

	meter, err := metrics.New(&cfg.Metrics)
	if err != nil {
		return nil, xerrors.Wrap(err, "init metrics")
	}
	a.Meter = meter

	if a.traceShutdown, err = trace.Init(&cfg.Trace); err != nil {
		return nil, xerrors.Wrap(err, "init tracing")
	}

	if a.regClient == nil {
		if a.regClient, err = registry.NewClient(&cfg.Registry, registry.WithLogger(a.Logger)); err != nil {
			return nil, xerrors.Wrap(err, "init registry client")
		}
	}
	a.Registrar = registry.NewRegistrar(a.regClient, &cfg.Registry,
		registry.WithLogger(a.Logger), registry.WithMeter(a.Meter))

	if cfg.RateLimit.Enabled {
		if a.limiter, err = ratelimit.NewStandalone(&cfg.RateLimit,
			ratelimit.WithLogger(a.Logger), ratelimit.WithMeter(a.Meter)); err != nil {
			return nil, xerrors.Wrap(err, "init rate limiter")
		}
	}
	return a, nil
}

// OnClose 注册退出时的清理函数，按注册的逆序执行
func (a *App) OnClose(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Router 返回挂好公共中间件与 /metrics 的 gin 引擎
func (a *App) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(
		httpx.Recovery(a.Logger),
		httpx.RequestID(),
		trace.GinMiddleware(a.cfg.Service.Name),
	)

	httpMetrics, err := metrics.NewHTTPServerMetrics(a.Meter, a.cfg.Service.Name)
	if err != nil {
		return nil, xerrors.Wrap(err, "init http metrics")
	}
	r.Use(metrics.GinHTTPMiddleware(httpMetrics), httpx.AccessLog(a.Logger))

	if a.limiter != nil {
		r.Use(ratelimit.GinMiddleware(a.limiter, ratelimit.ByClientIP))
	}
	if a.cfg.Metrics.Enabled {
		r.GET(a.cfg.Metrics.Path, gin.WrapH(a.Meter.Handler()))
	}
	return r, nil
}

// WatchLogLevel 配置文件中 log.level 变化时调整日志级别
func (a *App) WatchLogLevel(ctx context.Context, loader config.Loader) {
	events, err := loader.Watch(ctx, "log.level")
	if err != nil {
		a.Logger.Debug("log level hot reload disabled", clog.Error(err))
		return
	}
	go func() {
		for ev := range events {
			s, ok := ev.Value.(string)
			if !ok {
				continue
			}
			level, err := clog.ParseLevel(s)
			if err != nil {
				a.Logger.Warn("ignoring invalid log level", clog.String("level", s))
				continue
			}
			if err := a.Logger.SetLevel(level); err == nil {
				a.Logger.Info("log level changed", clog.String("level", level.String()))
			}
		}
	}()
}

// Run 监听端口、在后台完成启动注册，并阻塞到 ctx 取消或服务出错，随后优雅退出
//
// 注册失败不影响服务对外提供 HTTP。
func (a *App) Run(ctx context.Context, handler http.Handler) error {
	ln, err := net.Listen("tcp", a.cfg.Service.Addr())
	if err != nil {
		return xerrors.Wrapf(err, "listen %s", a.cfg.Service.Addr())
	}
	return a.Serve(ctx, ln, handler)
}

// Serve 与 Run 相同，但使用调用方提供的 listener
func (a *App) Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", clog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	a.Registrar.Start(gctx, a.cfg.Service.Descriptor())

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown(srv)
	})

	return g.Wait()
}

func (a *App) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Service.ShutdownTimeout)
	defer cancel()

	a.Logger.Info("shutting down")
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, xerrors.Wrap(err, "http shutdown"))
	}

	// 启动注册可能仍在进行，等它结束后再决定是否注销
	select {
	case <-a.Registrar.Done():
		if err := a.Registrar.Deregister(ctx); err != nil {
			errs = append(errs, err)
		}
	case <-ctx.Done():
	}

	a.mu.Lock()
	closers := a.closers
	a.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.regClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.limiter != nil {
		_ = a.limiter.Close()
	}
	if err := a.Meter.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.traceShutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	err := xerrors.Join(errs...)
	if err != nil {
		a.Logger.Error("shutdown completed with errors", clog.Error(err))
	} else {
		a.Logger.Info("shutdown complete")
	}
	a.Logger.Flush()
	return err
}
