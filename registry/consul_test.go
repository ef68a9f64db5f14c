package registry

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cityweather/xerrors"
)

// fakeAgent 模拟 Consul Agent 的注册/注销端点
type fakeAgent struct {
	mu       sync.Mutex
	services map[string]map[string]any
	removed  []string
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodPut && r.URL.Path == "/v1/agent/service/register":
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.services[body["ID"].(string)] = body
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/")
		delete(a.services, id)
		a.removed = append(a.removed, id)
	default:
		http.NotFound(w, r)
	}
}

func newConsulTestClient(t *testing.T, cfg *Config) (Client, *fakeAgent) {
	t.Helper()
	agent := &fakeAgent{services: make(map[string]map[string]any)}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, agent
}

func TestConsulClient_RegisterAndDeregister(t *testing.T) {
	client, agent := newConsulTestClient(t, &Config{})
	assert.Equal(t, DriverConsul, client.Driver())

	desc := &ServiceDescriptor{
		Name:     "city-service",
		Address:  "localhost",
		Port:     8080,
		Tags:     []string{"http"},
		Metadata: map[string]string{"version": "1"},
	}
	require.NoError(t, client.Register(context.Background(), desc))

	agent.mu.Lock()
	got := agent.services["city-service-localhost-8080"]
	agent.mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, "city-service", got["Name"])
	assert.Equal(t, "localhost", got["Address"])
	assert.EqualValues(t, 8080, got["Port"])
	assert.Nil(t, got["Check"])

	// 相同描述符再次注册是 upsert
	require.NoError(t, client.Register(context.Background(), desc))
	agent.mu.Lock()
	assert.Len(t, agent.services, 1)
	agent.mu.Unlock()

	require.NoError(t, client.Deregister(context.Background(), desc.ServiceID()))
	agent.mu.Lock()
	assert.Empty(t, agent.services)
	assert.Equal(t, []string{"city-service-localhost-8080"}, agent.removed)
	agent.mu.Unlock()
}

func TestConsulClient_HealthCheck(t *testing.T) {
	client, agent := newConsulTestClient(t, &Config{HealthCheck: HealthCheckConfig{
		Enabled:  true,
		Interval: 5 * time.Second,
	}})

	desc := &ServiceDescriptor{Name: "weather-service", Address: "127.0.0.1", Port: 8081}
	require.NoError(t, client.Register(context.Background(), desc))

	agent.mu.Lock()
	defer agent.mu.Unlock()
	check, ok := agent.services[desc.ServiceID()]["Check"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:8081/health", check["HTTP"])
	assert.Equal(t, "5s", check["Interval"])
}

func TestConsulClient_Unreachable(t *testing.T) {
	client, err := NewClient(&Config{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = client.Register(ctx, &ServiceDescriptor{Name: "svc", Address: "localhost", Port: 8080})
	assert.ErrorIs(t, err, xerrors.ErrUnavailable)
}

func TestConsulClient_Closed(t *testing.T) {
	client, _ := newConsulTestClient(t, &Config{})
	require.NoError(t, client.Close())
	err := client.Register(context.Background(), &ServiceDescriptor{Name: "svc", Address: "localhost", Port: 8080})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewClient_UnknownDriver(t *testing.T) {
	_, err := NewClient(&Config{Driver: "zookeeper"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRegistrar_UnreachableRegistry(t *testing.T) {
	client, err := NewClient(&Config{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)
	defer client.Close()

	r := NewRegistrar(client, &Config{Timeout: 2 * time.Second})
	select {
	case <-r.Start(context.Background(), testDescriptor()):
	case <-time.After(5 * time.Second):
		t.Fatal("registration did not finish")
	}

	st := r.Status()
	assert.Equal(t, StateFailed, st.State)
	var regErr *RegistrationError
	assert.ErrorAs(t, st.Reason, &regErr)
}
