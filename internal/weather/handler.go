package weather

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/cityweather/internal/httpx"
	"github.com/ceyewan/cityweather/registry"
	"github.com/ceyewan/cityweather/xerrors"
)

// Finder 天气查询能力，Handler 只依赖这一个方法
type Finder interface {
	FindWeatherByCity(ctx context.Context, name string) (*Record, error)
}

// StatusReporter 提供只读的注册状态
type StatusReporter interface {
	Status() registry.Status
}

// Handler weather 服务的 HTTP 入口
type Handler struct {
	finder Finder
	status StatusReporter
}

// NewHandler 创建 Handler，status 为 nil 时健康检查报告 unregistered
func NewHandler(finder Finder, status StatusReporter) *Handler {
	return &Handler{finder: finder, status: status}
}

// Register 挂载路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/weather/city", h.byCity)
}

func (h *Handler) health(c *gin.Context) {
	state := registry.StateUnregistered
	if h.status != nil {
		state = h.status.Status().State
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "registration": state.String()})
}

func (h *Handler) byCity(c *gin.Context) {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		httpx.Abort(c, http.StatusBadRequest, nil)
		return
	}

	// 熔断打开与任务池关闭都归为暂时不可用
	rec, err := h.finder.FindWeatherByCity(c.Request.Context(), name)
	switch {
	case err == nil:
	case xerrors.Is(err, xerrors.ErrUnavailable):
		httpx.Abort(c, http.StatusServiceUnavailable, err)
		return
	default:
		httpx.Abort(c, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, rec)
}
