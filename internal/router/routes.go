package router

import (
	"github.com/gin-gonic/gin"
)

// RoutesConfig 各路由组挂载的中间件，未设置的项跳过
type RoutesConfig struct {
	AdminAuth    gin.HandlerFunc // 后台令牌校验
	LoginLimiter gin.HandlerFunc // 后台登录限流
	Idempotency  gin.HandlerFunc // 下单幂等
}

// with 拼接中间件与最终处理器，忽略 nil 中间件
func with(handler gin.HandlerFunc, mws ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mws)+1)
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return append(out, handler)
}

func routesConfig(deps *Dependencies) *RoutesConfig {
	if deps.Routes == nil {
		return &RoutesConfig{}
	}
	return deps.Routes
}

// RegisterStoreRoutes 注册前台路由：商品浏览、购物车、下单与本地统计
func RegisterStoreRoutes(r *gin.RouterGroup, deps *Dependencies) {
	cfg := routesConfig(deps)

	if h := deps.ProductHandler; h != nil {
		products := r.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.GET("/slug/:slug", h.GetProductBySlug)
			products.GET("/category/:category", h.ListByCategory)
		}
		r.GET("/search", h.SearchProducts)
	}

	if h := deps.CartHandler; h != nil {
		cart := r.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/toggle", h.ToggleCart)
			cart.POST("/items", h.AddItem)
			cart.PATCH("/items/:lineId", h.UpdateItem)
			cart.DELETE("/items/:lineId", h.RemoveItem)
		}

		// 下单会清空购物车，重复提交以幂等键拦截
		r.POST("/checkout", with(h.Checkout, cfg.Idempotency)...)
	}

	if h := deps.LedgerHandler; h != nil {
		ledger := r.Group("/ledger")
		{
			ledger.GET("", h.GetSummary)
			ledger.GET("/orders", h.GetOrders)
		}
	}
}

// RegisterAdminRoutes 注册后台路由：登录公开，其余需要令牌
func RegisterAdminRoutes(r *gin.RouterGroup, deps *Dependencies) {
	cfg := routesConfig(deps)
	admin := r.Group("/admin")

	if h := deps.AuthHandler; h != nil {
		admin.POST("/login", with(h.Login, cfg.LoginLimiter)...)
		admin.POST("/refresh", with(h.Refresh, cfg.LoginLimiter)...)
	}

	// 未配置令牌校验时不暴露管理接口
	if cfg.AdminAuth == nil {
		return
	}
	protected := admin.Group("", cfg.AdminAuth)

	if h := deps.ProductHandler; h != nil {
		protected.POST("/products", h.CreateProduct)
		protected.PUT("/products/:id", h.UpdateProduct)
		protected.DELETE("/products/:id", h.DeleteProduct)
		protected.GET("/stats", h.GetStats)
	}

	if h := deps.UploadHandler; h != nil {
		protected.POST("/upload", h.Upload)
	}

	if h := deps.LedgerHandler; h != nil {
		ledger := protected.Group("/ledger")
		{
			ledger.GET("", h.GetSummary)
			ledger.POST("/reset", h.Reset)
			ledger.POST("/subtract", h.Subtract)
			ledger.DELETE("/orders", h.DeleteAllOrders)
			ledger.DELETE("/orders/:index", h.DeleteOrder)
		}
	}
}
