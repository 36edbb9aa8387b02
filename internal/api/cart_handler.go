package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

// CartHandler 购物车处理器，会话由 X-Cart-Session 指定
type CartHandler struct {
	carts    service.CartService
	checkout service.CheckoutService
	logger   *zap.Logger
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(carts service.CartService, checkout service.CheckoutService, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{carts: carts, checkout: checkout, logger: logger}
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart GET /api/v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), session)
	if err != nil {
		writeError(c, h.logger, "get_cart", err)
		return
	}
	resp.OK(c.Writer, cart, requestID(c), "")
}

// AddItem 加购
// @Summary 加入购物车
// @Description 相同商品、颜色、尺码的行合并数量；X-Device-ID 存在时同时记入本地账本
// @Tags 购物车
// @Accept json
// @Produce json
// @Param X-Cart-Session header string true "购物车会话"
// @Param X-Device-ID header string false "设备ID"
// @Param request body service.AddToCartRequest true "加购请求"
// @Success 200 {object} resp.Response[domain.Cart] "成功"
// @Router /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	var req service.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), session, c.GetHeader(HeaderDeviceID), &req)
	if err != nil {
		writeError(c, h.logger, "add_cart_item", err)
		return
	}
	resp.OK(c.Writer, cart, requestID(c), "")
}

// UpdateItem PATCH /api/v1/cart/items/:lineId，数量 <= 0 时删除该行
func (h *CartHandler) UpdateItem(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "quantity is required", err)
		return
	}

	cart, err := h.carts.UpdateQuantity(c.Request.Context(), session, c.Param("lineId"), *req.Quantity)
	if err != nil {
		writeError(c, h.logger, "update_cart_item", err)
		return
	}
	resp.OK(c.Writer, cart, requestID(c), "")
}

// RemoveItem DELETE /api/v1/cart/items/:lineId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), session, c.Param("lineId"))
	if err != nil {
		writeError(c, h.logger, "remove_cart_item", err)
		return
	}
	resp.OK(c.Writer, cart, requestID(c), "")
}

// ClearCart DELETE /api/v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), session); err != nil {
		writeError(c, h.logger, "clear_cart", err)
		return
	}
	resp.OK(c.Writer, gin.H{"cleared": true}, requestID(c), "")
}

// ToggleCart POST /api/v1/cart/toggle
func (h *CartHandler) ToggleCart(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	cart, err := h.carts.ToggleOpen(c.Request.Context(), session)
	if err != nil {
		writeError(c, h.logger, "toggle_cart", err)
		return
	}
	resp.OK(c.Writer, cart, requestID(c), "")
}

// Checkout 下单
// @Summary 下单
// @Description 生成 WhatsApp / 邮件下单链接并清空购物车；X-Idempotency-Key 防止重复记录
// @Tags 购物车
// @Accept json
// @Produce json
// @Param request body service.CheckoutRequest true "下单方式"
// @Success 200 {object} resp.Response[service.CheckoutResult] "成功"
// @Failure 400 {object} resp.Response[any] "购物车为空或方式无效"
// @Failure 409 {object} resp.Response[any] "重复请求"
// @Router /api/v1/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	session, ok := requireHeader(c, HeaderCartSession)
	if !ok {
		return
	}
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "method is required", err)
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), session, c.GetHeader(HeaderDeviceID), &req)
	if err != nil {
		writeError(c, h.logger, "checkout", err)
		return
	}
	resp.OK(c.Writer, result, requestID(c), "")
}
