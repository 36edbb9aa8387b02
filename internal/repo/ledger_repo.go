package repo

import (
	"context"
	"fmt"

	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/domain"
)

// LedgerRepository 设备级统计账本存储：统计聚合与订单日志分两个键保存，永不过期
type LedgerRepository interface {
	LoadStats(ctx context.Context, deviceID string) (*domain.LedgerStats, error)
	SaveStats(ctx context.Context, deviceID string, stats *domain.LedgerStats) error
	LoadJournal(ctx context.Context, deviceID string) (domain.OrderJournal, error)
	SaveJournal(ctx context.Context, deviceID string, journal domain.OrderJournal) error
}

type ledgerRepo struct {
	store cache.Cache
}

// NewLedgerRepository 基于键值存储创建账本仓储
func NewLedgerRepository(store cache.Cache) LedgerRepository {
	return &ledgerRepo{store: store}
}

// StatsKey 统计聚合的存储键
func StatsKey(deviceID string) string {
	return fmt.Sprintf("players-club-stats:%s", deviceID)
}

// JournalKey 订单日志的存储键
func JournalKey(deviceID string) string {
	return fmt.Sprintf("players-club-orders:%s", deviceID)
}

func (r *ledgerRepo) LoadStats(ctx context.Context, deviceID string) (*domain.LedgerStats, error) {
	stats := domain.NewLedgerStats()
	if err := r.store.Get(ctx, StatsKey(deviceID), stats); err != nil {
		if cache.IsMiss(err) {
			return domain.NewLedgerStats(), nil
		}
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "repo.ledger.load_stats", "Ledger storage unavailable")
	}
	if stats.ProductStats == nil {
		stats.ProductStats = make(map[string]domain.ProductCounters)
	}
	return stats, nil
}

func (r *ledgerRepo) SaveStats(ctx context.Context, deviceID string, stats *domain.LedgerStats) error {
	if err := r.store.Set(ctx, StatsKey(deviceID), stats, 0); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, "repo.ledger.save_stats", "Ledger storage unavailable")
	}
	return nil
}

func (r *ledgerRepo) LoadJournal(ctx context.Context, deviceID string) (domain.OrderJournal, error) {
	var journal domain.OrderJournal
	if err := r.store.Get(ctx, JournalKey(deviceID), &journal); err != nil {
		if cache.IsMiss(err) {
			return domain.OrderJournal{}, nil
		}
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "repo.ledger.load_journal", "Ledger storage unavailable")
	}
	if journal == nil {
		journal = domain.OrderJournal{}
	}
	return journal, nil
}

func (r *ledgerRepo) SaveJournal(ctx context.Context, deviceID string, journal domain.OrderJournal) error {
	if journal == nil {
		journal = domain.OrderJournal{}
	}
	if err := r.store.Set(ctx, JournalKey(deviceID), journal, 0); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, "repo.ledger.save_journal", "Ledger storage unavailable")
	}
	return nil
}
