package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/domain"
)

// CachedProductRepository 带缓存的商品仓储，只缓存单个商品的读取，
// 列表与搜索直接走底层存储。
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProductRepository{repo: repo, cache: c, ttl: ttl, logger: logger}
}

func productIDKey(id string) string     { return fmt.Sprintf("product:id:%s", id) }
func productSlugKey(slug string) string { return fmt.Sprintf("product:slug:%s", slug) }

func (r *CachedProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if err := r.repo.Create(ctx, p); err != nil {
		return err
	}
	// 防止之前缓存过的同 slug 查询结果残留
	r.invalidate(ctx, productSlugKey(p.Slug))
	return nil
}

// GetByID 根据 ID 获取商品（带缓存）
func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getCached(ctx, productIDKey(id), func() (*domain.Product, error) {
		return r.repo.GetByID(ctx, id)
	})
}

// GetBySlug 根据 slug 获取商品（带缓存）
func (r *CachedProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getCached(ctx, productSlugKey(slug), func() (*domain.Product, error) {
		return r.repo.GetBySlug(ctx, slug)
	})
}

func (r *CachedProductRepository) getCached(ctx context.Context, key string, load func() (*domain.Product, error)) (*domain.Product, error) {
	var product domain.Product
	if err := r.cache.Get(ctx, key, &product); err == nil {
		return &product, nil
	} else if !cache.IsMiss(err) {
		r.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := load()
	if err != nil || result == nil {
		return result, err
	}

	if err := r.cache.Set(ctx, key, result, r.ttl); err != nil {
		r.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func (r *CachedProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	return r.repo.List(ctx)
}

func (r *CachedProductRepository) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	return r.repo.ListByCategory(ctx, category)
}

func (r *CachedProductRepository) Search(ctx context.Context, c *domain.SearchCriteria) ([]*domain.Product, error) {
	return r.repo.Search(ctx, c)
}

// Update 更新商品，同时清除旧 slug 与新 slug 的缓存
func (r *CachedProductRepository) Update(ctx context.Context, p *domain.Product) error {
	keys := r.keysFor(ctx, p.ID)
	if err := r.repo.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx, append(keys, productSlugKey(p.Slug))...)
	return nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	keys := r.keysFor(ctx, id)
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, keys...)
	return nil
}

func (r *CachedProductRepository) IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error {
	keys := r.keysFor(ctx, id)
	if err := r.repo.IncrementCounters(ctx, id, addedToBag, checkouts); err != nil {
		return err
	}
	r.invalidate(ctx, keys...)
	return nil
}

// keysFor 返回商品当前的 ID 键与 slug 键
func (r *CachedProductRepository) keysFor(ctx context.Context, id string) []string {
	keys := []string{productIDKey(id)}
	if old, err := r.repo.GetByID(ctx, id); err == nil && old != nil {
		keys = append(keys, productSlugKey(old.Slug))
	}
	return keys
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.logger.Warn("product cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
