package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/cityweather/xerrors"
)

func TestValidateConfig(t *testing.T) {
	cases := []*Config{
		nil,
		{Endpoint: "localhost:4317"},
		{ServiceName: "city-service"},
		{ServiceName: "city-service", Endpoint: "localhost:4317", Sampler: 2},
		{ServiceName: "city-service", Endpoint: "localhost:4317", Sampler: 1, Batcher: "async"},
	}
	for _, cfg := range cases {
		assert.ErrorIs(t, validateConfig(cfg), xerrors.ErrInvalidInput)
	}
	assert.NoError(t, validateConfig(DefaultConfig("city-service")))
}

func TestInit_DisabledInstallsDiscardProvider(t *testing.T) {
	shutdown, err := Init(&Config{Enabled: false, ServiceName: "city-service"})
	require.NoError(t, err)
	defer shutdown(context.Background())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware("city-service"))

	var sc oteltrace.SpanContext
	router.GET("/cities", func(c *gin.Context) {
		sc = oteltrace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cities", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sc.IsValid(), "中间件应在请求上下文中放入有效的 span")
}
