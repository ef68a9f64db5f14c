package city

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/cityweather/clog"
	"github.com/ceyewan/cityweather/internal/httpx"
	"github.com/ceyewan/cityweather/registry"
	"github.com/ceyewan/cityweather/stream"
	"github.com/ceyewan/cityweather/xerrors"
)

// 列表模式
const (
	ListModePaginated = "paginated"
	ListModeAll       = "all"
)

// StatusReporter 提供只读的注册状态
type StatusReporter interface {
	Status() registry.Status
}

// Handler city 服务的 HTTP 入口
type Handler struct {
	store    Store
	pageSize int
	listMode string
	status   StatusReporter
	logger   clog.Logger
}

// NewHandler 创建 Handler，status 为 nil 时健康检查报告 unregistered
func NewHandler(store Store, cfg *CitiesConfig, status StatusReporter, opts ...Option) *Handler {
	if cfg == nil {
		cfg = &CitiesConfig{}
	}
	cfg.setDefaults()
	o := applyOptions(opts...)
	return &Handler{
		store:    store,
		pageSize: cfg.PageSize,
		listMode: cfg.ListMode,
		status:   status,
		logger:   o.logger,
	}
}

// Register 挂载路由
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/hello", h.hello)
	r.GET("/health", h.health)
	r.GET("/cities", h.list)
	r.POST("/cities", h.create)
	r.GET("/cities/:name", h.get)
	r.DELETE("/cities/:name", h.delete)
}

func (h *Handler) hello(c *gin.Context) {
	c.String(http.StatusOK, "Hello from city-service")
}

func (h *Handler) health(c *gin.Context) {
	state := registry.StateUnregistered
	if h.status != nil {
		state = h.status.Status().State
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "registration": state.String()})
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	cities := h.store.StreamAll(ctx)

	if h.listMode == ListModeAll {
		all, err := stream.Collect(cities)
		if err != nil {
			httpx.Abort(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, all)
		return
	}

	err := stream.WriteJSON(ctx, c.Writer, stream.Pages(cities, h.pageSize))
	switch {
	case err == nil:
	case !c.Writer.Written():
		httpx.Abort(c, http.StatusInternalServerError, err)
	case ctx.Err() != nil:
		h.logger.DebugContext(ctx, "client went away during city stream", clog.Error(err))
	default:
		_ = c.Error(err)
		h.logger.ErrorContext(ctx, "city stream aborted", clog.Error(err))
	}
}

func (h *Handler) create(c *gin.Context) {
	var in City
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.Abort(c, http.StatusBadRequest, err)
		return
	}

	created, err := h.store.Create(c.Request.Context(), &in)
	switch {
	case err == nil:
	case xerrors.Is(err, ErrDuplicateKey):
		httpx.Abort(c, http.StatusConflict, err)
		return
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		httpx.Abort(c, http.StatusBadRequest, err)
		return
	default:
		httpx.Abort(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Location", Location(created.Name))
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) get(c *gin.Context) {
	found, err := h.store.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		httpx.Abort(c, http.StatusInternalServerError, err)
		return
	}
	if found == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.store.DeleteByName(c.Request.Context(), c.Param("name")); err != nil {
		httpx.Abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Location 资源路径，名称按查询串规则编码且空格编码为 %20
func Location(name string) string {
	return "/cities/" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
