package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/config"
	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/notify"
)

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	Method domain.CheckoutMethod `json:"method" binding:"required"`
}

// CheckoutResult 下单结果，url 由客户端打开
type CheckoutResult struct {
	Method  domain.CheckoutMethod `json:"method"`
	Message string                `json:"message"`
	URL     string                `json:"url"`
	Total   float64               `json:"total"`
}

// CheckoutService 将购物车转换为 WhatsApp / 邮件下单链接
type CheckoutService interface {
	Checkout(ctx context.Context, sessionID, deviceID string, req *CheckoutRequest) (*CheckoutResult, error)
}

type checkoutService struct {
	carts    CartService
	catalog  CatalogService
	ledger   LedgerService
	notifier notify.OrderNotifier
	contact  config.ContactConfig
	baseURL  string
	logger   *zap.Logger
}

// NewCheckoutService 创建下单服务
func NewCheckoutService(
	carts CartService,
	catalog CatalogService,
	ledger LedgerService,
	notifier notify.OrderNotifier,
	contact config.ContactConfig,
	publicBaseURL string,
	logger *zap.Logger,
) CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &checkoutService{
		carts:    carts,
		catalog:  catalog,
		ledger:   ledger,
		notifier: notifier,
		contact:  contact,
		baseURL:  publicBaseURL,
		logger:   logger,
	}
}

// Checkout 生成下单消息与链接，记录账本与服务端计数，最后清空购物车
func (s *checkoutService) Checkout(ctx context.Context, sessionID, deviceID string, req *CheckoutRequest) (*CheckoutResult, error) {
	const op = "checkout"
	if req == nil || !req.Method.IsValid() {
		return nil, domain.Errorf(domain.EINVALID, op, "method must be one of: whatsapp, email")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.Errorf(domain.EINVALID, op, "Cart is empty")
	}

	message := ComposeOrderMessage(cart.Items, cart.Total, s.baseURL+"/shop/all")
	result := &CheckoutResult{Method: req.Method, Message: message, Total: cart.Total}
	switch req.Method {
	case domain.CheckoutWhatsApp:
		result.URL = WhatsAppURL(s.contact.WhatsAppNumber, message)
	case domain.CheckoutEmail:
		result.URL = EmailURL(s.contact.Email, OrderEmailSubject, message)
	}

	if deviceID != "" && s.ledger != nil {
		s.ledger.RecordCheckout(ctx, deviceID, cart.Items, cart.Total, req.Method)
	}
	s.catalog.RecordCheckout(ctx, cart.Items)

	if err := s.notifier.NotifyOrder(ctx, notify.OrderNotification{
		Subject: OrderEmailSubject,
		Body:    message,
		Method:  string(req.Method),
		Total:   cart.Total,
	}); err != nil {
		s.logger.Warn("failed to send order notification", zap.Error(err))
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	s.logger.Info("checkout completed",
		zap.String("method", string(req.Method)),
		zap.Int("lines", len(cart.Items)),
		zap.Float64("total", cart.Total),
	)
	return result, nil
}
