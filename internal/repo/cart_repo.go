package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/domain"
)

// CartRepository 购物车会话存储，每个会话一个键
type CartRepository interface {
	// Load 读取购物车，不存在时返回空购物车
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
}

type cartRepo struct {
	store cache.Cache
	ttl   time.Duration
}

// NewCartRepository 基于键值存储创建购物车仓储，ttl 为会话保留时长
func NewCartRepository(store cache.Cache, ttl time.Duration) CartRepository {
	return &cartRepo{store: store, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("players-club-cart:%s", sessionID)
}

func (r *cartRepo) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.store.Get(ctx, cartKey(sessionID), &cart); err != nil {
		if cache.IsMiss(err) {
			return domain.NewCart(), nil
		}
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "repo.cart.load", "Cart storage unavailable")
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *cartRepo) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if err := r.store.Set(ctx, cartKey(sessionID), cart, r.ttl); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, "repo.cart.save", "Cart storage unavailable")
	}
	return nil
}
