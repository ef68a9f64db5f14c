package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cityweather/xerrors"
)

type fakeClient struct {
	mu           sync.Mutex
	registered   map[string]*ServiceDescriptor
	registerN    atomic.Int32
	deregistered []string
	// failFirst 前 n 次 Register 返回 err
	failFirst int32
	err       error
	block     bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{registered: make(map[string]*ServiceDescriptor)}
}

func (f *fakeClient) Register(ctx context.Context, desc *ServiceDescriptor) error {
	n := f.registerN.Add(1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= f.failFirst {
		return f.err
	}
	f.mu.Lock()
	f.registered[desc.ServiceID()] = desc
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Deregister(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, id)
	f.deregistered = append(f.deregistered, id)
	return nil
}

func (f *fakeClient) Driver() string { return "fake" }
func (f *fakeClient) Close() error   { return nil }

func testDescriptor() *ServiceDescriptor {
	return &ServiceDescriptor{Name: "city-service", Address: "localhost", Port: 8080}
}

func TestRegistrar_InitialStatus(t *testing.T) {
	r := NewRegistrar(newFakeClient(), nil)
	st := r.Status()
	assert.Equal(t, StateUnregistered, st.State)
	assert.NoError(t, st.Reason)
}

func TestRegistrar_RegisterSuccess(t *testing.T) {
	fc := newFakeClient()
	r := NewRegistrar(fc, nil)

	require.NoError(t, r.Register(context.Background(), testDescriptor()))

	st := r.Status()
	assert.Equal(t, StateRegistered, st.State)
	assert.Equal(t, "city-service-localhost-8080", st.ServiceID)
	assert.Equal(t, 1, st.Attempts)
	assert.Contains(t, fc.registered, "city-service-localhost-8080")
}

func TestRegistrar_StatusTransitions(t *testing.T) {
	var states []State
	r := NewRegistrar(newFakeClient(), nil, WithStatusObserver(func(s Status) {
		states = append(states, s.State)
	}))

	require.NoError(t, r.Register(context.Background(), testDescriptor()))
	assert.Equal(t, []State{StateRegistering, StateRegistered}, states)
}

func TestRegistrar_OneShot(t *testing.T) {
	fc := newFakeClient()
	r := NewRegistrar(fc, nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(context.Background(), testDescriptor()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fc.registerN.Load())
}

func TestRegistrar_FailureIsRecorded(t *testing.T) {
	fc := newFakeClient()
	fc.failFirst = 100
	fc.err = xerrors.Wrap(xerrors.ErrUnavailable, "connection refused")
	r := NewRegistrar(fc, nil)

	err := r.Register(context.Background(), testDescriptor())
	require.Error(t, err)

	var regErr *RegistrationError
	require.True(t, errors.As(err, &regErr))
	assert.True(t, xerrors.Is(err, xerrors.ErrUnavailable))

	st := r.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Error(t, st.Reason)

	// 失败后不再重新注册
	assert.Error(t, r.Register(context.Background(), testDescriptor()))
	assert.Equal(t, int32(1), fc.registerN.Load())
}

func TestRegistrar_InvalidDescriptorSkipsRPC(t *testing.T) {
	tests := []struct {
		name string
		desc *ServiceDescriptor
	}{
		{"nil", nil},
		{"empty name", &ServiceDescriptor{Address: "localhost", Port: 8080}},
		{"port zero", &ServiceDescriptor{Name: "svc", Address: "localhost", Port: 0}},
		{"port too large", &ServiceDescriptor{Name: "svc", Address: "localhost", Port: 70000}},
		{"bad host", &ServiceDescriptor{Name: "svc", Address: "not a host", Port: 8080}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeClient()
			var states []State
			r := NewRegistrar(fc, nil, WithStatusObserver(func(s Status) {
				states = append(states, s.State)
			}))

			err := r.Register(context.Background(), tt.desc)
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
			assert.Equal(t, StateFailed, r.Status().State)
			assert.Equal(t, []State{StateRegistering, StateFailed}, states)
			assert.Equal(t, int32(0), fc.registerN.Load())
		})
	}
}

func TestRegistrar_Timeout(t *testing.T) {
	fc := newFakeClient()
	fc.block = true
	r := NewRegistrar(fc, &Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	err := r.Register(context.Background(), testDescriptor())
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StateFailed, r.Status().State)
}

func TestRegistrar_Retry(t *testing.T) {
	fc := newFakeClient()
	fc.failFirst = 2
	fc.err = xerrors.ErrUnavailable
	r := NewRegistrar(fc, &Config{Retry: RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}})

	require.NoError(t, r.Register(context.Background(), testDescriptor()))
	st := r.Status()
	assert.Equal(t, StateRegistered, st.State)
	assert.Equal(t, 3, st.Attempts)
}

func TestRegistrar_StartIsNonBlocking(t *testing.T) {
	fc := newFakeClient()
	fc.block = true
	r := NewRegistrar(fc, &Config{Timeout: 100 * time.Millisecond})

	done := r.Start(context.Background(), testDescriptor())
	assert.NotEqual(t, StateFailed, r.Status().State)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registration did not finish")
	}
	assert.Equal(t, StateFailed, r.Status().State)
}

func TestRegistrar_Deregister(t *testing.T) {
	fc := newFakeClient()
	r := NewRegistrar(fc, nil)

	// 未注册时是空操作
	require.NoError(t, r.Deregister(context.Background()))
	assert.Empty(t, fc.deregistered)

	require.NoError(t, r.Register(context.Background(), testDescriptor()))
	require.NoError(t, r.Deregister(context.Background()))
	assert.Equal(t, []string{"city-service-localhost-8080"}, fc.deregistered)
	assert.Equal(t, StateUnregistered, r.Status().State)
}

func TestServiceDescriptor_ServiceID(t *testing.T) {
	d := &ServiceDescriptor{Name: "weather-service", Address: "10.0.0.2", Port: 8081}
	assert.Equal(t, "weather-service-10.0.0.2-8081", d.ServiceID())
	assert.Equal(t, "10.0.0.2:8081", d.Endpoint())

	d.ID = "custom"
	assert.Equal(t, "custom", d.ServiceID())
}

func TestValidHost(t *testing.T) {
	for _, h := range []string{"localhost", "example.com", "10.0.0.1", "::1", "a-b.c"} {
		assert.True(t, validHost(h), h)
	}
	for _, h := range []string{"", "-bad", "bad-", "a..b", "has space", "under_score"} {
		assert.False(t, validHost(h), h)
	}
}
