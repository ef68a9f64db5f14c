package weather

import (
	"context"
	"strings"

	"github.com/ceyewan/cityweather/breaker"
	"github.com/ceyewan/cityweather/cache"
	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/worker"
	"github.com/ceyewan/cityweather/xerrors"
)

const breakerKey = "weather-store"

// Service 天气查询服务
type Service struct {
	repo    Repository
	cache   *cache.Local[*Record]
	breaker breaker.Breaker
	pool    *worker.Pool
	logger  clog.Logger
}

// NewService 组合缓存、熔断器与任务池。repo 的关闭由 Service.Close 负责。
func NewService(repo Repository, cfg *ServiceConfig, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)

	c, err := cache.NewLocal[*Record](&cfg.Cache, cache.WithLogger(o.logger), cache.WithMeter(o.meter))
	if err != nil {
		return nil, xerrors.Wrap(err, "weather: init cache")
	}
	b, err := breaker.New(&cfg.Breaker, breaker.WithLogger(o.logger), breaker.WithMeter(o.meter))
	if err != nil {
		return nil, xerrors.Wrap(err, "weather: init breaker")
	}

	return &Service{
		repo:    repo,
		cache:   c,
		breaker: b,
		pool:    worker.New(&cfg.Pool, worker.WithLogger(o.logger), worker.WithMeter(o.meter)),
		logger:  o.logger,
	}, nil
}

// FindWeatherByCity 按城市名查询，不存在时返回 nil, nil。
//
// 存储调用在任务池中执行；熔断打开时快速失败，错误 Is breaker.ErrOpenState。
func (s *Service) FindWeatherByCity(ctx context.Context, name string) (*Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "weather: city name is required")
	}

	rec, found, err := s.cache.GetOrLoad(ctx, name, func(ctx context.Context) (*Record, bool, error) {
		rec, err := breaker.Do(ctx, s.breaker, breakerKey, func() (*Record, error) {
			return worker.Submit(ctx, s.pool, func(ctx context.Context) (*Record, error) {
				return s.repo.FindByCity(ctx, name)
			})
		})
		return rec, rec != nil, err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "weather lookup failed", clog.String("city", name), clog.Error(err))
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return rec, nil
}

// Close 等待进行中的查询结束后关闭数据源
func (s *Service) Close(ctx context.Context) error {
	return xerrors.Join(s.pool.Close(ctx), s.repo.Close())
}
