package api

import (
	"context"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/service"
)

// mockCatalogService 按需覆盖的目录服务
type mockCatalogService struct {
	createFunc   func(ctx context.Context, in *domain.ProductInput) (*domain.Product, error)
	updateFunc   func(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	deleteFunc   func(ctx context.Context, id string) error
	getFunc      func(ctx context.Context, id string) (*domain.Product, error)
	listFunc     func(ctx context.Context) ([]*domain.Product, error)
	categoryFunc func(ctx context.Context, category string) ([]*domain.Product, error)
	searchFunc   func(ctx context.Context, query string) ([]*domain.Product, error)
	statsFunc    func(ctx context.Context) (*domain.CatalogAggregateStats, error)
}

func (m *mockCatalogService) Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return &domain.Product{ID: domain.NewProductID(), Name: in.Name}, nil
}

func (m *mockCatalogService) Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return &domain.Product{ID: id}, nil
}

func (m *mockCatalogService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockCatalogService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &domain.Product{ID: id, Name: "Test Product"}, nil
}

func (m *mockCatalogService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if slug == "missing" {
		return nil, domain.Errorf(domain.ENOTFOUND, "mock.get_by_slug", "Product not found")
	}
	return &domain.Product{ID: domain.NewProductID(), Slug: slug}, nil
}

func (m *mockCatalogService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*domain.Product{{ID: "p1", Name: "One"}, {ID: "p2", Name: "Two"}}, nil
}

func (m *mockCatalogService) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	if m.categoryFunc != nil {
		return m.categoryFunc(ctx, category)
	}
	if _, err := domain.ParseCategory(category); err != nil {
		return nil, err
	}
	return []*domain.Product{}, nil
}

func (m *mockCatalogService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return []*domain.Product{}, nil
}

func (m *mockCatalogService) RecordAddToBag(ctx context.Context, productID string, quantity int) {}

func (m *mockCatalogService) RecordCheckout(ctx context.Context, items []domain.CartItem) {}

func (m *mockCatalogService) AggregateStats(ctx context.Context) (*domain.CatalogAggregateStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &domain.CatalogAggregateStats{}, nil
}

// mockCartService 只记录调用参数
type mockCartService struct {
	lastSession string
	lastDevice  string
	lastQty     int
	err         error
}

func (m *mockCartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.lastSession = sessionID
	return domain.NewCart(), m.err
}

func (m *mockCartService) AddItem(ctx context.Context, sessionID, deviceID string, req *service.AddToCartRequest) (*domain.Cart, error) {
	m.lastSession, m.lastDevice, m.lastQty = sessionID, deviceID, req.Quantity
	if m.err != nil {
		return nil, m.err
	}
	cart := domain.NewCart()
	_, err := cart.AddItem(domain.CartItem{ID: "line-1", ProductID: req.ProductID, Price: 45, Quantity: req.Quantity})
	return cart, err
}

func (m *mockCartService) RemoveItem(ctx context.Context, sessionID, lineID string) (*domain.Cart, error) {
	m.lastSession = sessionID
	return domain.NewCart(), m.err
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*domain.Cart, error) {
	m.lastSession, m.lastQty = sessionID, quantity
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewCart(), nil
}

func (m *mockCartService) Clear(ctx context.Context, sessionID string) error {
	m.lastSession = sessionID
	return m.err
}

func (m *mockCartService) ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart := domain.NewCart()
	cart.ToggleOpen()
	return cart, m.err
}

// mockCheckoutService 下单服务
type mockCheckoutService struct {
	checkoutFunc func(ctx context.Context, sessionID, deviceID string, req *service.CheckoutRequest) (*service.CheckoutResult, error)
}

func (m *mockCheckoutService) Checkout(ctx context.Context, sessionID, deviceID string, req *service.CheckoutRequest) (*service.CheckoutResult, error) {
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, sessionID, deviceID, req)
	}
	return &service.CheckoutResult{Method: req.Method, URL: "https://wa.me/1?text=hi", Total: 90}, nil
}

// mockAuthService 固定凭证 owner / s3cret
type mockAuthService struct{}

func (mockAuthService) Login(ctx context.Context, username, password string) (*service.TokenPair, error) {
	if username != "owner" || password != "s3cret" {
		return nil, domain.Errorf(domain.EUNAUTHORIZED, "mock.login", "Invalid credentials")
	}
	return &service.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	if refreshToken != "refresh" {
		return nil, domain.Errorf(domain.EUNAUTHORIZED, "mock.refresh", "Invalid or expired refresh token")
	}
	return &service.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

// mockImageStore 记录保存的文件名
type mockImageStore struct {
	names []string
	err   error
}

func (m *mockImageStore) Store(ctx context.Context, data []byte, suggestedName, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.names = append(m.names, suggestedName)
	return "/uploads/" + suggestedName, nil
}
