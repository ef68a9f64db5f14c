// Package cache 提供进程内缓存，基于 otter v2。
//
// 写入过期语义：过期时间从写入开始计算，读取不会延长 TTL。
// 并发的同 key 回源通过 singleflight 合并为一次。回源脱离发起者的取消信号，
// 只受 LoadTimeout 约束；每个调用方各自等待自己的 ctx。
//
// 基本使用：
//
//	c, err := cache.NewLocal[*weather.Record](&cache.Config{
//		Name:     "weather",
//		Capacity: 1000,
//		TTL:      time.Minute,
//	}, cache.WithLogger(logger), cache.WithMeter(meter))
//
//	rec, found, err := c.GetOrLoad(ctx, "Paris", func(ctx context.Context) (*weather.Record, bool, error) {
//		return repo.FindByCity(ctx, "Paris")
//	})
package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/xerrors"
)

// LoadFunc 回源函数。found 为 false 表示数据源中不存在，结果不会写入缓存。
type LoadFunc[V any] func(ctx context.Context) (value V, found bool, err error)

// Local 进程内缓存
type Local[V any] struct {
	name        string
	loadTimeout time.Duration
	cache       *otter.Cache[string, V]
	group  singleflight.Group
	logger clog.Logger

	hits   metrics.Counter
	misses metrics.Counter
}

type loadResult[V any] struct {
	value V
	found bool
}

// NewLocal 创建进程内缓存
func NewLocal[V any](cfg *Config, opts ...Option) (*Local[V], error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)

	c, err := otter.New(&otter.Options[string, V]{
		MaximumSize:      cfg.Capacity,
		ExpiryCalculator: otter.ExpiryWriting[string, V](cfg.TTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "cache: build otter cache")
	}

	l := &Local[V]{
		name:        cfg.Name,
		loadTimeout: cfg.LoadTimeout,
		cache:       c,
		logger:      o.logger.With(clog.String("cache", cfg.Name)),
	}
	if l.hits, err = o.meter.Counter("cache_hits_total", "Number of cache hits"); err != nil {
		return nil, xerrors.Wrap(err, "cache: create hits counter")
	}
	if l.misses, err = o.meter.Counter("cache_misses_total", "Number of cache misses"); err != nil {
		return nil, xerrors.Wrap(err, "cache: create misses counter")
	}
	return l, nil
}

// Get 读取缓存
func (l *Local[V]) Get(ctx context.Context, key string) (V, bool) {
	v, ok := l.cache.GetIfPresent(key)
	if ok {
		l.hits.Inc(ctx, metrics.L("cache", l.name))
	} else {
		l.misses.Inc(ctx, metrics.L("cache", l.name))
	}
	return v, ok
}

// Set 写入缓存，使用默认 TTL
func (l *Local[V]) Set(key string, value V) {
	l.cache.Set(key, value)
}

// SetWithTTL 写入缓存并覆盖过期时间
func (l *Local[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	l.cache.Set(key, value)
	if ttl > 0 {
		l.cache.SetExpiresAfter(key, ttl)
	}
}

// Delete 删除缓存
func (l *Local[V]) Delete(key string) {
	l.cache.Invalidate(key)
}

// GetOrLoad 命中时直接返回，未命中时调用 load 回源并写入缓存。
// 同一 key 的并发回源只执行一次，其余调用者共享结果。
// 某个调用方取消只让它自己返回 ctx.Err()，不影响共享回源。
func (l *Local[V]) GetOrLoad(ctx context.Context, key string, load LoadFunc[V]) (V, bool, error) {
	if v, ok := l.Get(ctx, key); ok {
		return v, true, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.loadTimeout)
		defer cancel()

		v, found, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if found {
			l.cache.Set(key, v)
		}
		return loadResult[V]{value: v, found: found}, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			l.logger.DebugContext(ctx, "cache load failed", clog.String("key", key), clog.Error(res.Err))
			return zero, false, res.Err
		}
		r := res.Val.(loadResult[V])
		return r.value, r.found, nil
	}
}

// Len 当前条目数（近似值）
func (l *Local[V]) Len() int {
	return l.cache.EstimatedSize()
}
