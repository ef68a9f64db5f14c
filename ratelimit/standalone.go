package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
)

type limiterWrapper struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

type standaloneLimiter struct {
	cfg      *Config
	logger   clog.Logger
	rejected metrics.Counter
	limiters sync.Map // map[string]*limiterWrapper
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newStandalone(cfg *Config, o *options) (Limiter, error) {
	rejected, err := o.meter.Counter(MetricRejectedTotal, "Number of requests rejected by the rate limiter")
	if err != nil {
		return nil, err
	}
	l := &standaloneLimiter{
		cfg:      cfg,
		logger:   o.logger,
		rejected: rejected,
		stopCh:   make(chan struct{}),
	}
	go l.cleanup(cfg.CleanupInterval, cfg.IdleTimeout)

	l.logger.Info("standalone rate limiter created",
		clog.Float64("rate", cfg.Rate),
		clog.Int("burst", cfg.Burst),
		clog.Duration("idle_timeout", cfg.IdleTimeout))
	return l, nil
}

func (l *standaloneLimiter) Default() Limit {
	return Limit{Rate: l.cfg.Rate, Burst: l.cfg.Burst}
}

func (l *standaloneLimiter) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	if !limit.Valid() {
		return false, ErrInvalidLimit
	}

	w := l.getLimiter(key, limit)
	w.mu.Lock()
	allowed := w.limiter.Allow()
	w.lastSeen = time.Now()
	w.mu.Unlock()

	if !allowed {
		l.rejected.Inc(ctx)
		l.logger.DebugContext(ctx, "rate limit exceeded", clog.String("key", key))
	}
	return allowed, nil
}

func (l *standaloneLimiter) Wait(ctx context.Context, key string, limit Limit) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if !limit.Valid() {
		return ErrInvalidLimit
	}

	w := l.getLimiter(key, limit)
	w.mu.Lock()
	w.lastSeen = time.Now()
	w.mu.Unlock()
	// rate.Limiter 自身并发安全，等待期间不持有锁
	return w.limiter.Wait(ctx)
}

func (l *standaloneLimiter) getLimiter(key string, limit Limit) *limiterWrapper {
	cacheKey := fmt.Sprintf("%s:%v:%d", key, limit.Rate, limit.Burst)
	if v, ok := l.limiters.Load(cacheKey); ok {
		return v.(*limiterWrapper)
	}
	w := &limiterWrapper{
		limiter:  rate.NewLimiter(rate.Limit(limit.Rate), limit.Burst),
		lastSeen: time.Now(),
	}
	actual, _ := l.limiters.LoadOrStore(cacheKey, w)
	return actual.(*limiterWrapper)
}

func (l *standaloneLimiter) cleanup(interval, idleTimeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			count := 0
			l.limiters.Range(func(key, value any) bool {
				w := value.(*limiterWrapper)
				w.mu.Lock()
				idle := now.Sub(w.lastSeen)
				w.mu.Unlock()
				if idle > idleTimeout {
					l.limiters.Delete(key)
					count++
				}
				return true
			})
			if count > 0 {
				l.logger.Debug("cleaned up idle limiters", clog.Int("count", count))
			}
		case <-l.stopCh:
			return
		}
	}
}

func (l *standaloneLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	return nil
}
