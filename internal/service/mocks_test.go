package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/notify"
)

var errStoreDown = errors.New("store down")

// Mock ProductRepository for testing
type mockProductRepository struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	counterErr error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[string]*domain.Product)}
}

func clone(p *domain.Product) *domain.Product {
	cp := *p
	return &cp
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return domain.Errorf(domain.ECONFLICT, "mock.create", "slug exists")
		}
	}
	m.products[p.ID] = clone(p)
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Slug == slug {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (m *mockProductRepository) sorted(keep func(*domain.Product) bool) []*domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return m.sorted(func(*domain.Product) bool { return true }), nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	return m.sorted(func(p *domain.Product) bool { return p.Category == category }), nil
}

func (m *mockProductRepository) Search(ctx context.Context, c *domain.SearchCriteria) ([]*domain.Product, error) {
	return m.sorted(c.Matches), nil
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.update", "not found")
	}
	m.products[p.ID] = clone(p)
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.delete", "not found")
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counterErr != nil {
		return m.counterErr
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.increment", "not found")
	}
	p.AddedToBagCount += addedToBag
	p.CheckoutCount += checkouts
	return nil
}

// seed 直接写入一个商品，createdAt 按 age 递减
func (m *mockProductRepository) seed(name string, category domain.Category, price float64, age time.Duration) *domain.Product {
	p := &domain.Product{
		ID:             domain.NewProductID(),
		Name:           name,
		Slug:           domain.Slugify(name),
		Price:          price,
		Category:       category,
		Description:    name + " description",
		Details:        []string{"100% cotton"},
		AvailableSizes: []string{"M"},
		Sizes:          []string{"M"},
		Colors: []domain.Color{{
			Name:  "Black",
			Value: "black",
			Images: domain.ColorImages{
				Front:    domain.ParseImageSlot("/uploads/" + domain.Slugify(name) + "-front.png"),
				Back:     domain.ParseImageSlot("/uploads/" + domain.Slugify(name) + "-back.png"),
				Optional: []string{},
			},
		}},
		InStock:   true,
		CreatedAt: time.Now().Add(-age),
		UpdatedAt: time.Now().Add(-age),
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return clone(p)
}

// mockAssetRemover 记录被删除的图片引用
type mockAssetRemover struct {
	deleted []string
	err     error
}

func (m *mockAssetRemover) Delete(ctx context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	return m.err
}

// failingLedgerRepository 所有读写均失败
type failingLedgerRepository struct{}

func (failingLedgerRepository) LoadStats(ctx context.Context, deviceID string) (*domain.LedgerStats, error) {
	return nil, domain.WrapError(errStoreDown, domain.EUNAVAILABLE, "mock.ledger", "down")
}

func (failingLedgerRepository) SaveStats(ctx context.Context, deviceID string, stats *domain.LedgerStats) error {
	return domain.WrapError(errStoreDown, domain.EUNAVAILABLE, "mock.ledger", "down")
}

func (failingLedgerRepository) LoadJournal(ctx context.Context, deviceID string) (domain.OrderJournal, error) {
	return nil, domain.WrapError(errStoreDown, domain.EUNAVAILABLE, "mock.ledger", "down")
}

func (failingLedgerRepository) SaveJournal(ctx context.Context, deviceID string, journal domain.OrderJournal) error {
	return domain.WrapError(errStoreDown, domain.EUNAVAILABLE, "mock.ledger", "down")
}

// mockNotifier 记录发送的通知
type mockNotifier struct {
	sent []notify.OrderNotification
	err  error
}

func (m *mockNotifier) NotifyOrder(ctx context.Context, n notify.OrderNotification) error {
	m.sent = append(m.sent, n)
	return m.err
}
