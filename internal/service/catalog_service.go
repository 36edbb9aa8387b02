package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/repo"
)

// AssetRemover 删除商品引用的图片资源
type AssetRemover interface {
	Delete(ctx context.Context, ref string) error
}

// CatalogService 商品目录业务接口
type CatalogService interface {
	// 商品管理
	Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error

	// 商品查询
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, category string) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)

	// 服务端计数，失败只记录日志
	RecordAddToBag(ctx context.Context, productID string, quantity int)
	RecordCheckout(ctx context.Context, items []domain.CartItem)

	// 商品统计
	AggregateStats(ctx context.Context) (*domain.CatalogAggregateStats, error)
}

type catalogService struct {
	products repo.ProductRepository
	assets   AssetRemover
	logger   *zap.Logger
	now      func() time.Time

	// writeMu 串行化 slug 唯一性检查与写入，存储层唯一索引兜底
	writeMu sync.Mutex
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(products repo.ProductRepository, assets AssetRemover, logger *zap.Logger) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		products: products,
		assets:   assets,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建商品
func (s *catalogService) Create(ctx context.Context, in *domain.ProductInput) (*domain.Product, error) {
	const op = "catalog.create"
	if in == nil {
		return nil, domain.Errorf(domain.EINVALID, op, "Request body is required")
	}
	input := *in
	input.Normalize()
	if fields := domain.ValidateProduct(&input); len(fields) > 0 {
		return nil, domain.NewValidationError(op, fields)
	}

	product := domain.BuildProduct(input, s.now())
	product.ID = domain.NewProductID()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureSlugFree(ctx, op, product.Slug, ""); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("slug", product.Slug),
	)
	return product, nil
}

// ensureSlugFree 检查 slug 未被 selfID 之外的商品占用
func (s *catalogService) ensureSlugFree(ctx context.Context, op, slug, selfID string) error {
	existing, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return domain.Errorf(domain.ECONFLICT, op, "A product with slug %q already exists", slug)
	}
	return nil
}

// GetByID 按 ID 获取商品
func (s *catalogService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := domain.ValidateProductID(id); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, domain.Errorf(domain.ENOTFOUND, "catalog.get", "Product not found")
	}
	return product, nil
}

// GetBySlug 按 slug 精确获取商品
func (s *catalogService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}
	if product == nil {
		return nil, domain.Errorf(domain.ENOTFOUND, "catalog.get_by_slug", "Product not found")
	}
	return product, nil
}

// ListAll 全部商品，最新在前
func (s *catalogService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return nonNilProducts(products), nil
}

// ListByCategory 按分类列出商品，最新在前
func (s *catalogService) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByCategory(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return nonNilProducts(products), nil
}

// Search 搜索商品；空白查询返回空列表
func (s *catalogService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	criteria, ok := domain.ParseSearchQuery(query)
	if !ok {
		return []*domain.Product{}, nil
	}
	products, err := s.products.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return nonNilProducts(products), nil
}

// Update 合并补丁后整体重新校验并保存
func (s *catalogService) Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	const op = "catalog.update"
	if err := domain.ValidateProductID(id); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if existing == nil {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Product not found")
	}

	input := existing.ToInput().Apply(patch)
	input.Normalize()
	if fields := domain.ValidateProduct(&input); len(fields) > 0 {
		return nil, domain.NewValidationError(op, fields)
	}

	updated := domain.BuildProduct(input, existing.CreatedAt)
	updated.ID = existing.ID
	updated.AddedToBagCount = existing.AddedToBagCount
	updated.CheckoutCount = existing.CheckoutCount
	updated.UpdatedAt = s.now()

	if updated.Slug != existing.Slug {
		if err := s.ensureSlugFree(ctx, op, updated.Slug, existing.ID); err != nil {
			return nil, err
		}
	}
	if err := s.products.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("product updated",
		zap.String("product_id", updated.ID),
		zap.String("slug", updated.Slug),
	)
	return updated, nil
}

// Delete 删除商品，并尽力回收其全部图片
func (s *catalogService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateProductID(id); err != nil {
		return err
	}
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if existing == nil {
		return domain.Errorf(domain.ENOTFOUND, "catalog.delete", "Product not found")
	}

	if s.assets != nil {
		for _, ref := range existing.ImageRefs() {
			if err := s.assets.Delete(ctx, ref); err != nil {
				s.logger.Warn("failed to delete product image",
					zap.String("product_id", id),
					zap.String("ref", ref),
					zap.Error(err),
				)
			}
		}
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// RecordAddToBag 累加服务端加购计数
func (s *catalogService) RecordAddToBag(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		return
	}
	if err := s.products.IncrementCounters(ctx, productID, int64(quantity), 0); err != nil {
		s.logger.Warn("failed to record add to bag",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
}

// RecordCheckout 按行累加服务端下单计数
func (s *catalogService) RecordCheckout(ctx context.Context, items []domain.CartItem) {
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if err := s.products.IncrementCounters(ctx, it.ProductID, 0, int64(it.Quantity)); err != nil {
			s.logger.Warn("failed to record checkout",
				zap.String("product_id", it.ProductID),
				zap.Error(err),
			)
		}
	}
}

// AggregateStats 由服务端计数汇总目录统计
func (s *catalogService) AggregateStats(ctx context.Context) (*domain.CatalogAggregateStats, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return domain.ComputeCatalogStats(products), nil
}

func nonNilProducts(products []*domain.Product) []*domain.Product {
	if products == nil {
		return []*domain.Product{}
	}
	return products
}
