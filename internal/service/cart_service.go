package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/repo"
)

// AddToCartRequest 加购请求。价格、名称与图片由服务端按商品当前状态快照
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// CartService 按会话保存的购物车
type CartService interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID, deviceID string, req *AddToCartRequest) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, lineID string) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type cartService struct {
	carts         repo.CartRepository
	catalog       CatalogService
	ledger        LedgerService
	publicBaseURL string
	logger        *zap.Logger
	newLineID     func() string

	mu sync.Mutex
}

// NewCartService 创建购物车服务
func NewCartService(carts repo.CartRepository, catalog CatalogService, ledger LedgerService, publicBaseURL string, logger *zap.Logger) CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cartService{
		carts:         carts,
		catalog:       catalog,
		ledger:        ledger,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
		newLineID:     newLineID,
	}
}

// newLineID 行 ID 使用 UUIDv7，失败时退回 v4
func newLineID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func requireSession(op, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Errorf(domain.EINVALID, op, "Cart session is required")
	}
	return nil
}

// Get 读取购物车，不存在时为空购物车
func (s *cartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if err := requireSession("cart.get", sessionID); err != nil {
		return nil, err
	}
	return s.carts.Load(ctx, sessionID)
}

// AddItem 加购：按 (商品, 颜色, 尺码) 合并，每次调用向账本记录一次
func (s *cartService) AddItem(ctx context.Context, sessionID, deviceID string, req *AddToCartRequest) (*domain.Cart, error) {
	const op = "cart.add"
	if err := requireSession(op, sessionID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.Errorf(domain.EINVALID, op, "Request body is required")
	}
	if req.Quantity < 1 {
		return nil, domain.Errorf(domain.EINVALID, op, "quantity must be at least 1")
	}

	product, err := s.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := cart.AddItem(s.snapshot(product, req)); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	if deviceID != "" && s.ledger != nil {
		s.ledger.RecordAddToBag(ctx, deviceID, product.ID, req.Quantity)
	}
	s.catalog.RecordAddToBag(ctx, product.ID, req.Quantity)

	s.logger.Debug("item added to cart",
		zap.String("session_id", sessionID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", req.Quantity),
	)
	return cart, nil
}

// snapshot 以商品当前状态构造购物车行，图片取所选颜色的正面图
func (s *cartService) snapshot(p *domain.Product, req *AddToCartRequest) domain.CartItem {
	image := p.CoverImage()
	for _, c := range p.Colors {
		if c.Name == req.Color || c.Value == req.Color {
			image = c.Images.Front
			break
		}
	}
	return domain.CartItem{
		ID:         s.newLineID(),
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Color:      req.Color,
		Size:       req.Size,
		Quantity:   req.Quantity,
		Image:      image.String(),
		ProductURL: fmt.Sprintf("%s/shop/%s/%s", s.publicBaseURL, p.Category, p.Slug),
	}
}

// RemoveItem 删除行，不存在的行直接忽略
func (s *cartService) RemoveItem(ctx context.Context, sessionID, lineID string) (*domain.Cart, error) {
	return s.mutate(ctx, "cart.remove", sessionID, func(cart *domain.Cart) error {
		cart.RemoveItem(lineID)
		return nil
	})
}

// UpdateQuantity 设置数量，<= 0 时删除该行
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*domain.Cart, error) {
	const op = "cart.update"
	return s.mutate(ctx, op, sessionID, func(cart *domain.Cart) error {
		if !cart.UpdateQuantity(lineID, quantity) {
			return domain.Errorf(domain.ENOTFOUND, op, "Cart item not found")
		}
		return nil
	})
}

// ToggleOpen 切换展开状态
func (s *cartService) ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.mutate(ctx, "cart.toggle", sessionID, func(cart *domain.Cart) error {
		cart.ToggleOpen()
		return nil
	})
}

// Clear 清空购物车
func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, "cart.clear", sessionID, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
	return err
}

func (s *cartService) mutate(ctx context.Context, op, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	if err := requireSession(op, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}
