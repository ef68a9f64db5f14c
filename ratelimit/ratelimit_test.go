package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) Limiter {
	t.Helper()
	l, err := NewStandalone(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestStandalone_Allow(t *testing.T) {
	l := newTestLimiter(t, nil)
	ctx := context.Background()
	limit := Limit{Rate: 1, Burst: 2}

	for range 2 {
		ok, err := l.Allow(ctx, "k", limit)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "k", limit)
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同 key 独立计数
	ok, _ = l.Allow(ctx, "other", limit)
	assert.True(t, ok)
}

func TestStandalone_InvalidArgs(t *testing.T) {
	l := newTestLimiter(t, nil)
	_, err := l.Allow(context.Background(), "", Limit{Rate: 1, Burst: 1})
	assert.ErrorIs(t, err, ErrKeyEmpty)
	_, err = l.Allow(context.Background(), "k", Limit{})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestStandalone_Wait(t *testing.T) {
	l := newTestLimiter(t, nil)
	limit := Limit{Rate: 1, Burst: 1}
	require.NoError(t, l.Wait(context.Background(), "k", limit))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "k", limit))
}

func TestStandalone_Defaults(t *testing.T) {
	l := newTestLimiter(t, &Config{Rate: 5, Burst: 10})
	assert.Equal(t, Limit{Rate: 5, Burst: 10}, l.Default())
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := newTestLimiter(t, &Config{Rate: 1, Burst: 1})

	r := gin.New()
	r.Use(GinMiddleware(l, nil))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Limit"))

	second := do()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
}

func TestGinMiddleware_ByHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := newTestLimiter(t, &Config{Rate: 1, Burst: 1})

	r := gin.New()
	r.Use(GinMiddleware(l, ByHeader("X-API-Key")))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func(apiKey string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		req.Header.Set("X-API-Key", apiKey)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// 同一 IP 下不同的 key 各自计数
	assert.Equal(t, http.StatusOK, do("alpha"))
	assert.Equal(t, http.StatusOK, do("beta"))
	assert.Equal(t, http.StatusTooManyRequests, do("alpha"))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 1, retryAfter(Limit{Rate: 100, Burst: 1}))
	assert.Equal(t, 4, retryAfter(Limit{Rate: 0.25, Burst: 1}))
}
