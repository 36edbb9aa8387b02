package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

// ProductHandler 商品目录处理器
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler 创建商品处理器实例
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{catalog: catalog, logger: logger}
}

// ListProducts 商品列表，最新在前
// @Summary 商品列表
// @Tags 商品
// @Produce json
// @Success 200 {object} resp.Response[[]domain.Product] "成功"
// @Failure 503 {object} resp.Response[any] "存储不可用"
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list_products", err)
		return
	}
	resp.OK(c.Writer, products, requestID(c), "")
}

// GetProduct 商品详情
// @Summary 按 ID 获取商品
// @Tags 商品
// @Produce json
// @Param id path string true "商品ID"
// @Success 200 {object} resp.Response[domain.Product] "成功"
// @Failure 400 {object} resp.Response[any] "ID 格式错误"
// @Failure 404 {object} resp.Response[any] "商品不存在"
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get_product", err)
		return
	}
	resp.OK(c.Writer, product, requestID(c), "")
}

// GetProductBySlug 按 slug 获取商品
// GET /api/v1/products/slug/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.logger, "get_product_by_slug", err)
		return
	}
	resp.OK(c.Writer, product, requestID(c), "")
}

// ListByCategory 分类商品列表
// GET /api/v1/products/category/:category
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	products, err := h.catalog.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		writeError(c, h.logger, "list_by_category", err)
		return
	}
	resp.OK(c.Writer, products, requestID(c), "")
}

// SearchProducts 搜索商品
// GET /api/v1/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, "search_products", err)
		return
	}
	resp.OK(c.Writer, products, requestID(c), "")
}

// CreateProduct 创建商品
// @Summary 创建商品
// @Tags 后台
// @Accept json
// @Produce json
// @Param request body domain.ProductInput true "商品"
// @Success 201 {object} resp.Response[domain.Product] "创建成功"
// @Failure 400 {object} resp.Response[any] "校验失败，data.errors 为字段错误"
// @Failure 409 {object} resp.Response[any] "slug 冲突"
// @Router /api/v1/admin/products [post]
// @Security Bearer
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in domain.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.logger, "create_product", err)
		return
	}
	resp.Created(c.Writer, product, requestID(c), "")
}

// UpdateProduct 部分更新商品
// PUT /api/v1/admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var patch domain.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), &patch)
	if err != nil {
		writeError(c, h.logger, "update_product", err)
		return
	}
	resp.OK(c.Writer, product, requestID(c), "")
}

// DeleteProduct 删除商品及其图片
// DELETE /api/v1/admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "delete_product", err)
		return
	}
	resp.OK(c.Writer, gin.H{"id": id, "deleted": true}, requestID(c), "")
}

// GetStats 目录统计（服务端计数）
// GET /api/v1/admin/stats
func (h *ProductHandler) GetStats(c *gin.Context) {
	stats, err := h.catalog.AggregateStats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "catalog_stats", err)
		return
	}
	resp.OK(c.Writer, stats, requestID(c), "")
}
