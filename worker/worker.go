// Package worker 提供有界的阻塞任务池。
//
// 请求处理协程不直接执行阻塞的驱动调用，而是通过 Pool.Do 交给池中的协程执行，
// 并发上限由信号量约束。池满时调用方在 ctx 上等待，一个慢调用不会拖住与之无关的请求。
//
//	pool := worker.New(&worker.Config{Name: "weather-lookup", Size: 16})
//	rec, err := worker.Submit(ctx, pool, func(ctx context.Context) (*Record, error) {
//		return repo.FindByCity(ctx, name)
//	})
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/xerrors"
)

// ErrClosed 池已关闭
var ErrClosed = xerrors.Wrap(xerrors.ErrUnavailable, "worker: pool closed")

// Config 任务池配置
type Config struct {
	Name string `mapstructure:"name"`
	// Size 同时执行的最大任务数 (默认: 16)
	Size int `mapstructure:"size"`
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Size <= 0 {
		c.Size = 16
	}
}

// Option 任务池选项
type Option func(*Pool)

// WithLogger 设置 Logger
func WithLogger(l clog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l.WithNamespace("worker")
		}
	}
}

// WithMeter 记录 worker_inflight_tasks 与 worker_task_duration_seconds
func WithMeter(m metrics.Meter) Option {
	return func(p *Pool) {
		p.meter = m
	}
}

// Pool 有界阻塞任务池
type Pool struct {
	name   string
	size   int
	sem    *semaphore.Weighted
	logger clog.Logger
	meter  metrics.Meter

	inflight metrics.Gauge
	duration metrics.Histogram

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New 创建任务池
func New(cfg *Config, opts ...Option) *Pool {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	p := &Pool{
		name:   cfg.Name,
		size:   cfg.Size,
		sem:    semaphore.NewWeighted(int64(cfg.Size)),
		logger: clog.Discard(),
		meter:  metrics.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(clog.String("pool", p.name))

	p.inflight, _ = p.meter.Gauge("worker_inflight_tasks", "Blocking tasks currently executing.")
	p.duration, _ = p.meter.Histogram("worker_task_duration_seconds", "Blocking task duration in seconds.", metrics.WithUnit("s"))
	if p.inflight == nil || p.duration == nil {
		noop := metrics.Discard()
		p.inflight, _ = noop.Gauge("", "")
		p.duration, _ = noop.Histogram("", "")
	}
	return p
}

// Size 最大并发数
func (p *Pool) Size() int {
	return p.size
}

// Do 在池中执行 fn 并等待其结束。
//
// 等待空位或等待结果期间 ctx 取消时立即返回 ctx.Err()；已开始的 fn 会继续运行直到返回，
// 其占用的名额在返回后才释放，fn 应当自行遵守传入的 ctx。fn 中的 panic 转换为错误。
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		done <- p.run(ctx, fn)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "caller gave up waiting for blocking task", clog.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	labels := []metrics.Label{metrics.L("pool", p.name)}
	p.inflight.Inc(ctx, labels...)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Wrapf(xerrors.ErrInternal, "worker[%s]: task panicked: %v", p.name, r)
			p.logger.ErrorContext(ctx, "blocking task panicked", clog.String("panic", fmt.Sprint(r)))
		}
		p.inflight.Dec(ctx, labels...)
		p.duration.Record(ctx, time.Since(start).Seconds(), labels...)
	}()
	return fn(ctx)
}

// Close 拒绝新任务并等待已提交的任务结束，ctx 到期时放弃等待
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit Do 的泛型版本，返回 fn 的结果
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
