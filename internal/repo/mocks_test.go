package repo

import (
	"context"

	"github.com/MorseWayne/players_club/internal/domain"
)

// mockProductRepository 内存版商品仓储，记录调用次数
type mockProductRepository struct {
	products map[string]*domain.Product
	getCalls int
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.getCalls++
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	m.getCalls++
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepository) ListByCategory(ctx context.Context, c domain.Category) ([]*domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepository) Search(ctx context.Context, c *domain.SearchCriteria) ([]*domain.Product, error) {
	return nil, nil
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.update", "Product not found")
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.delete", "Product not found")
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error {
	p, ok := m.products[id]
	if !ok {
		return domain.Errorf(domain.ENOTFOUND, "mock.increment", "Product not found")
	}
	p.AddedToBagCount += addedToBag
	p.CheckoutCount += checkouts
	return nil
}
