package breaker

import (
	"context"
	"errors"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/xerrors"
)

type circuitBreaker struct {
	cfg      *Config
	logger   clog.Logger
	fallback FallbackFunc

	transitions metrics.Counter
	rejects     metrics.Counter

	breakers sync.Map // map[string]*gobreaker.CircuitBreaker[any]
}

func newBreaker(cfg *Config, o *options) (Breaker, error) {
	cb := &circuitBreaker{
		cfg:      cfg,
		logger:   o.logger,
		fallback: o.fallback,
	}

	var err error
	if cb.transitions, err = o.meter.Counter(MetricStateChanges, "Number of circuit breaker state transitions"); err != nil {
		return nil, xerrors.Wrap(err, "breaker: create metric")
	}
	if cb.rejects, err = o.meter.Counter(MetricRejectsTotal, "Number of requests rejected by an open circuit breaker"); err != nil {
		return nil, xerrors.Wrap(err, "breaker: create metric")
	}

	cb.logger.Info("circuit breaker created",
		clog.Int("max_requests", int(cfg.MaxRequests)),
		clog.Duration("timeout", cfg.Timeout),
		clog.Float64("failure_ratio", cfg.FailureRatio),
		clog.Int("minimum_requests", int(cfg.MinimumRequests)))
	return cb, nil
}

func (cb *circuitBreaker) Execute(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if key == "" {
		return nil, ErrKeyEmpty
	}

	result, err := cb.getOrCreate(key).Execute(fn)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		cb.rejects.Inc(ctx, metrics.L(LabelKey, key))
		cb.logger.WarnContext(ctx, "circuit breaker rejected request", clog.String("key", key), clog.Error(err))
		if cb.fallback != nil {
			return cb.fallback(ctx, key, err)
		}
		return nil, xerrors.Wrap(ErrOpenState, key)
	}
	return result, err
}

func (cb *circuitBreaker) State(key string) (State, error) {
	if key == "" {
		return StateClosed, ErrKeyEmpty
	}
	val, ok := cb.breakers.Load(key)
	if !ok {
		return StateClosed, nil
	}
	return fromGobreaker(val.(*gobreaker.CircuitBreaker[any]).State()), nil
}

func (cb *circuitBreaker) getOrCreate(key string) *gobreaker.CircuitBreaker[any] {
	if val, ok := cb.breakers.Load(key); ok {
		return val.(*gobreaker.CircuitBreaker[any])
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:          key,
		MaxRequests:   cb.cfg.MaxRequests,
		Interval:      cb.cfg.Interval,
		Timeout:       cb.cfg.Timeout,
		ReadyToTrip:   cb.readyToTrip,
		IsSuccessful:  isSuccessful,
		OnStateChange: cb.onStateChange,
	})
	actual, _ := cb.breakers.LoadOrStore(key, b)
	return actual.(*gobreaker.CircuitBreaker[any])
}

func (cb *circuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cb.cfg.MinimumRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= cb.cfg.FailureRatio
}

func (cb *circuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	cb.transitions.Inc(context.Background(),
		metrics.L(LabelKey, name),
		metrics.L(LabelToState, fromGobreaker(to).String()))
	cb.logger.Info("circuit breaker state changed",
		clog.String("key", name),
		clog.String("from", fromGobreaker(from).String()),
		clog.String("to", fromGobreaker(to).String()))
}

// isSuccessful 调用方取消不算下游失败
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}
