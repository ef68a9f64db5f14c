package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/metrics"
	"github.com/ceyewan/cityweather/xerrors"
)

// State 注册状态
type State int

const (
	StateUnregistered State = iota
	StateRegistering
	StateRegistered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status 注册状态快照
type Status struct {
	State     State
	ServiceID string
	// Reason 仅在 StateFailed 时非空
	Reason    error
	Attempts  int
	UpdatedAt time.Time
}

// Registrar 每个进程只做一次启动注册
//
// Unregistered -> Registering -> Registered | Failed，之后不会再次进入 Registering。
// 注册失败只影响 Status，服务照常对外提供 HTTP。
type Registrar struct {
	client Client
	cfg    *Config
	logger   clog.Logger
	gauge    metrics.Gauge
	observer func(Status)

	once   sync.Once
	done   chan struct{}
	result error

	mu     sync.RWMutex
	status Status
}

// NewRegistrar 创建 Registrar，client 由调用方关闭
func NewRegistrar(client Client, cfg *Config, opts ...Option) *Registrar {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)

	r := &Registrar{
		client:   client,
		cfg:      cfg,
		logger:   o.logger,
		observer: o.observer,
		done:     make(chan struct{}),
		status:   Status{State: StateUnregistered, UpdatedAt: time.Now()},
	}
	if g, err := o.meter.Gauge("service_registration_state",
		"Startup registration state: 0 unregistered, 1 registering, 2 registered, 3 failed"); err == nil {
		r.gauge = g
	} else {
		r.logger.Warn("failed to create registration gauge", clog.Error(err))
	}
	return r
}

// Start 在独立协程上执行 Register，返回的 channel 在注册结束后关闭
func (r *Registrar) Start(ctx context.Context, desc *ServiceDescriptor) <-chan struct{} {
	go func() {
		_ = r.Register(ctx, desc)
	}()
	return r.done
}

// Register 执行启动注册并阻塞到结果确定，最多等待 cfg.Timeout。
// 只有首次调用会发起 RPC，之后的调用直接返回首次的结果。
func (r *Registrar) Register(ctx context.Context, desc *ServiceDescriptor) error {
	r.once.Do(func() {
		defer close(r.done)
		r.result = r.register(ctx, desc)
	})
	<-r.done
	return r.result
}

// Done 返回注册结束时关闭的 channel
func (r *Registrar) Done() <-chan struct{} {
	return r.done
}

func (r *Registrar) register(ctx context.Context, desc *ServiceDescriptor) error {
	var serviceID string
	if desc != nil {
		serviceID = desc.ServiceID()
	}
	r.setStatus(StateRegistering, serviceID, nil, 0)

	if err := desc.Validate(); err != nil {
		failure := &RegistrationError{ServiceID: serviceID, Cause: err}
		r.setStatus(StateFailed, serviceID, failure, 0)
		r.logger.ErrorContext(ctx, "service registration rejected", clog.Error(err))
		return failure
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.Retry.InitialInterval
	b.MaxInterval = r.cfg.Retry.MaxInterval

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := r.client.Register(ctx, desc)
		if err != nil && (xerrors.Is(err, xerrors.ErrInvalidInput) || errors.Is(err, ErrClosed)) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.cfg.Retry.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.logger.WarnContext(ctx, "service registration attempt failed",
				clog.String("service_id", serviceID),
				clog.Int("attempt", attempts),
				clog.Duration("retry_in", next),
				clog.Error(err))
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = xerrors.Join(xerrors.ErrTimeout, err)
		}
		failure := &RegistrationError{ServiceID: serviceID, Attempts: attempts, Cause: err}
		r.setStatus(StateFailed, serviceID, failure, attempts)
		r.logger.ErrorContext(ctx, "service registration failed, continuing without registry",
			clog.String("service_id", serviceID),
			clog.String("driver", r.client.Driver()),
			clog.Int("attempts", attempts),
			clog.Error(err))
		return failure
	}

	r.setStatus(StateRegistered, serviceID, nil, attempts)
	return nil
}

// Deregister 注销已注册的实例，未注册成功时不做任何事
func (r *Registrar) Deregister(ctx context.Context) error {
	st := r.Status()
	if st.State != StateRegistered {
		return nil
	}
	if err := r.client.Deregister(ctx, st.ServiceID); err != nil {
		r.logger.WarnContext(ctx, "service deregistration failed",
			clog.String("service_id", st.ServiceID), clog.Error(err))
		return err
	}
	r.setStatus(StateUnregistered, st.ServiceID, nil, st.Attempts)
	return nil
}

// Status 返回当前状态快照，可并发调用
func (r *Registrar) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Registrar) setStatus(state State, serviceID string, reason error, attempts int) {
	r.mu.Lock()
	r.status = Status{
		State:     state,
		ServiceID: serviceID,
		Reason:    reason,
		Attempts:  attempts,
		UpdatedAt: time.Now(),
	}
	st := r.status
	r.mu.Unlock()

	if r.gauge != nil {
		r.gauge.Set(context.Background(), float64(state))
	}
	if r.observer != nil {
		r.observer(st)
	}
}
