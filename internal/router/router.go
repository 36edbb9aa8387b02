// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/api"
	"github.com/MorseWayne/players_club/internal/config"
	"github.com/MorseWayne/players_club/internal/middleware"
	"github.com/MorseWayne/players_club/internal/resp"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	ProductHandler *api.ProductHandler
	CartHandler    *api.CartHandler
	LedgerHandler  *api.LedgerHandler
	AuthHandler    *api.AuthHandler
	UploadHandler  *api.UploadHandler
	Routes         *RoutesConfig

	// StaticDir 非空时在 StaticURL 下提供本地上传的图片
	StaticDir string
	StaticURL string
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg

	r.setupMiddleware()
	r.setupRoutes(cfg)

	return r.engine
}

// setupMiddleware 设置 Gin 中间件。访问日志、CORS、超时在外层 net/http 链上处理
func (r *GinRouter) setupMiddleware() {
	r.engine.Use(gin.CustomRecovery(r.recoveryHandler))

	r.engine.NoRoute(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "Route not found",
			middleware.RequestIDFromContext(c.Request.Context()), "")
	})
	r.engine.HandleMethodNotAllowed = true
	r.engine.NoMethod(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusMethodNotAllowed, resp.CodeInvalidParam, "Method not allowed",
			middleware.RequestIDFromContext(c.Request.Context()), "")
	})
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes(cfg *config.Config) {
	r.engine.GET("/healthz", r.healthCheck(cfg.App.Version))

	if r.deps.StaticDir != "" && r.deps.StaticURL != "" {
		r.engine.Static(r.deps.StaticURL, r.deps.StaticDir)
	}

	v1 := r.engine.Group("/api/v1")
	RegisterStoreRoutes(v1, r.deps)
	RegisterAdminRoutes(v1, r.deps)
}

// healthCheck 健康检查处理器
func (r *GinRouter) healthCheck(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := map[string]any{
			"status":  "ok",
			"version": version,
		}
		resp.OK(c.Writer, &data, middleware.RequestIDFromContext(c.Request.Context()), "")
	}
}

// recoveryHandler 处理器 panic 时记录日志并返回统一的错误响应
func (r *GinRouter) recoveryHandler(c *gin.Context, err any) {
	reqID := middleware.RequestIDFromContext(c.Request.Context())
	r.logger.Error("handler panic",
		zap.Any("panic", err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", reqID),
	)
	resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError,
		"An internal error occurred. Please try again later.", reqID, "")
	c.Abort()
}
