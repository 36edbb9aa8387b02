package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/repo"
)

// LedgerService 设备级本地统计账本。存储故障不会向调用方暴露：
// 读取退化为空账本，写入退化为空操作，并以 warn 级别记录。
type LedgerService interface {
	RecordAddToBag(ctx context.Context, deviceID, productID string, quantity int)
	RecordCheckout(ctx context.Context, deviceID string, items []domain.CartItem, total float64, method domain.CheckoutMethod)
	Reset(ctx context.Context, deviceID string)

	Stats(ctx context.Context, deviceID string) *domain.LedgerStats
	RecentOrders(ctx context.Context, deviceID string) []domain.JournalEntry
	MostAddedToBag(ctx context.Context, deviceID string, products []*domain.Product) *domain.Product
	MostCheckedOut(ctx context.Context, deviceID string, products []*domain.Product) *domain.Product
	Summary(ctx context.Context, deviceID string, products []*domain.Product) *domain.LedgerSummary
}

// LedgerCorrections 后台手工修正，只影响各自的对象：
// Subtract 不动订单日志，删除日志条目不动统计聚合
type LedgerCorrections interface {
	Subtract(ctx context.Context, deviceID string, revenue float64, checkouts int64)
	DeleteJournalEntry(ctx context.Context, deviceID string, index int) error
	DeleteAllJournalEntries(ctx context.Context, deviceID string)
}

type ledgerService struct {
	store  repo.LedgerRepository
	logger *zap.Logger
	now    func() time.Time

	// mu 串行化本进程内的读改写，跨进程为最后写入者生效
	mu sync.Mutex
}

// Ledger 同时提供记录与修正能力，由装配层按需拆分注入
type Ledger interface {
	LedgerService
	LedgerCorrections
}

// NewLedgerService 创建账本服务
func NewLedgerService(store repo.LedgerRepository, logger *zap.Logger) Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ledgerService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ledgerService) loadStats(ctx context.Context, deviceID string) *domain.LedgerStats {
	stats, err := s.store.LoadStats(ctx, deviceID)
	if err != nil {
		s.logger.Warn("ledger stats unavailable, using empty ledger",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return domain.NewLedgerStats()
	}
	return stats
}

func (s *ledgerService) loadJournal(ctx context.Context, deviceID string) domain.OrderJournal {
	journal, err := s.store.LoadJournal(ctx, deviceID)
	if err != nil {
		s.logger.Warn("order journal unavailable, using empty journal",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return domain.OrderJournal{}
	}
	return journal
}

func (s *ledgerService) saveStats(ctx context.Context, deviceID string, stats *domain.LedgerStats) {
	if err := s.store.SaveStats(ctx, deviceID, stats); err != nil {
		s.logger.Warn("failed to persist ledger stats",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
}

func (s *ledgerService) saveJournal(ctx context.Context, deviceID string, journal domain.OrderJournal) {
	if err := s.store.SaveJournal(ctx, deviceID, journal); err != nil {
		s.logger.Warn("failed to persist order journal",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}
}

// RecordAddToBag 累加加购次数
func (s *ledgerService) RecordAddToBag(ctx context.Context, deviceID, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats(ctx, deviceID)
	stats.RecordAddToBag(productID, quantity)
	s.saveStats(ctx, deviceID, stats)
}

// RecordCheckout 记录一次下单：更新统计并在订单日志头部插入一条
func (s *ledgerService) RecordCheckout(ctx context.Context, deviceID string, items []domain.CartItem, total float64, method domain.CheckoutMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats(ctx, deviceID)
	stats.RecordCheckout(items, total)
	s.saveStats(ctx, deviceID, stats)

	entry := domain.JournalEntry{
		Timestamp: s.now(),
		Items:     append([]domain.CartItem(nil), items...),
		Total:     total,
		Method:    method,
	}
	journal := s.loadJournal(ctx, deviceID).Prepend(entry)
	s.saveJournal(ctx, deviceID, journal)

	s.logger.Info("checkout recorded",
		zap.String("device_id", deviceID),
		zap.String("method", string(method)),
		zap.Float64("total", total),
	)
}

// Reset 清零统计聚合并清空订单日志，两者分别写入各自的键
func (s *ledgerService) Reset(ctx context.Context, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.NewLedgerStats()
	stats.Reset()
	s.saveStats(ctx, deviceID, stats)
	s.saveJournal(ctx, deviceID, domain.OrderJournal{})
	s.logger.Info("ledger reset", zap.String("device_id", deviceID))
}

// Stats 当前统计聚合
func (s *ledgerService) Stats(ctx context.Context, deviceID string) *domain.LedgerStats {
	return s.loadStats(ctx, deviceID)
}

// RecentOrders 最近的订单，按时间倒序
func (s *ledgerService) RecentOrders(ctx context.Context, deviceID string) []domain.JournalEntry {
	return s.loadJournal(ctx, deviceID).Recent(domain.RecentOrdersLimit)
}

func (s *ledgerService) MostAddedToBag(ctx context.Context, deviceID string, products []*domain.Product) *domain.Product {
	return s.loadStats(ctx, deviceID).MostAddedToBag(products)
}

func (s *ledgerService) MostCheckedOut(ctx context.Context, deviceID string, products []*domain.Product) *domain.Product {
	return s.loadStats(ctx, deviceID).MostCheckedOut(products)
}

// Summary 后台展示用摘要
func (s *ledgerService) Summary(ctx context.Context, deviceID string, products []*domain.Product) *domain.LedgerSummary {
	return domain.Summarize(s.loadStats(ctx, deviceID), s.loadJournal(ctx, deviceID), products)
}

// Subtract 扣减收入与下单次数，结果不低于 0
func (s *ledgerService) Subtract(ctx context.Context, deviceID string, revenue float64, checkouts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats(ctx, deviceID)
	stats.Subtract(revenue, checkouts)
	s.saveStats(ctx, deviceID, stats)
	s.logger.Info("ledger corrected",
		zap.String("device_id", deviceID),
		zap.Float64("revenue", revenue),
		zap.Int64("checkouts", checkouts),
	)
}

// DeleteJournalEntry 删除单条订单日志；下标越界返回 ENOTFOUND
func (s *ledgerService) DeleteJournalEntry(ctx context.Context, deviceID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal, err := s.loadJournal(ctx, deviceID).Delete(index)
	if err != nil {
		return err
	}
	s.saveJournal(ctx, deviceID, journal)
	return nil
}

// DeleteAllJournalEntries 清空订单日志
func (s *ledgerService) DeleteAllJournalEntries(ctx context.Context, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveJournal(ctx, deviceID, domain.OrderJournal{})
	s.logger.Info("order journal cleared", zap.String("device_id", deviceID))
}
