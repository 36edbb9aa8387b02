package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

// LedgerHandler 设备级本地统计账本，设备由 X-Device-ID 指定
type LedgerHandler struct {
	ledger      service.LedgerService
	corrections service.LedgerCorrections
	catalog     service.CatalogService
	logger      *zap.Logger
}

// NewLedgerHandler 创建账本处理器
func NewLedgerHandler(ledger service.LedgerService, corrections service.LedgerCorrections, catalog service.CatalogService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{ledger: ledger, corrections: corrections, catalog: catalog, logger: logger}
}

type subtractRequest struct {
	Revenue   float64 `json:"revenue" binding:"gte=0"`
	Checkouts int64   `json:"checkouts" binding:"gte=0"`
}

// GetSummary 账本摘要：总收入、下单次数、最受欢迎商品、最近订单
// GET /api/v1/ledger, GET /api/v1/admin/ledger
func (h *LedgerHandler) GetSummary(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	products, err := h.catalog.ListAll(ctx)
	if err != nil {
		// 商品列表不可用时仍返回聚合值，只是没有排行
		h.logger.Warn("catalog unavailable for ledger summary",
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		products = nil
	}
	resp.OK(c.Writer, h.ledger.Summary(ctx, device, products), requestID(c), "")
}

// GetOrders 最近的订单
// GET /api/v1/ledger/orders
func (h *LedgerHandler) GetOrders(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	resp.OK(c.Writer, h.ledger.RecentOrders(c.Request.Context(), device), requestID(c), "")
}

// Reset 清零统计聚合并清空订单日志
// POST /api/v1/admin/ledger/reset
func (h *LedgerHandler) Reset(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	h.ledger.Reset(c.Request.Context(), device)
	resp.OK(c.Writer, h.ledger.Stats(c.Request.Context(), device), requestID(c), "")
}

// Subtract 手工扣减收入与下单次数
// POST /api/v1/admin/ledger/subtract
func (h *LedgerHandler) Subtract(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	var req subtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "revenue and checkouts must be non-negative numbers", err)
		return
	}
	h.corrections.Subtract(c.Request.Context(), device, req.Revenue, req.Checkouts)
	resp.OK(c.Writer, h.ledger.Stats(c.Request.Context(), device), requestID(c), "")
}

// DeleteOrder 删除一条订单日志，不影响统计聚合
// DELETE /api/v1/admin/ledger/orders/:index
func (h *LedgerHandler) DeleteOrder(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "Invalid order index", requestID(c), "")
		return
	}
	if err := h.corrections.DeleteJournalEntry(c.Request.Context(), device, index); err != nil {
		writeError(c, h.logger, "delete_order", err)
		return
	}
	resp.OK(c.Writer, h.ledger.RecentOrders(c.Request.Context(), device), requestID(c), "")
}

// DeleteAllOrders 清空订单日志
// DELETE /api/v1/admin/ledger/orders
func (h *LedgerHandler) DeleteAllOrders(c *gin.Context) {
	device, ok := requireHeader(c, HeaderDeviceID)
	if !ok {
		return
	}
	h.corrections.DeleteAllJournalEntries(c.Request.Context(), device)
	resp.OK(c.Writer, []domain.JournalEntry{}, requestID(c), "")
}
