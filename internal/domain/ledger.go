package domain

import (
	"sort"
	"time"
)

const (
	// JournalCap 订单日志最多保留的条数
	JournalCap = 50
	// RecentOrdersLimit 后台“最近订单”展示条数
	RecentOrdersLimit = 10
)

// CheckoutMethod 下单渠道
type CheckoutMethod string

const (
	CheckoutWhatsApp CheckoutMethod = "whatsapp"
	CheckoutEmail    CheckoutMethod = "email"
)

// IsValid 判断渠道是否受支持
func (m CheckoutMethod) IsValid() bool {
	return m == CheckoutWhatsApp || m == CheckoutEmail
}

// ProductCounters 单个商品在本设备上的计数
type ProductCounters struct {
	AddedToBag int64 `json:"addedToBag"`
	Checkouts  int64 `json:"checkouts"`
}

// LedgerStats 设备级统计聚合，与订单日志分开存储
type LedgerStats struct {
	TotalRevenue   float64                    `json:"totalRevenue"`
	TotalCheckouts int64                      `json:"totalCheckouts"`
	ProductStats   map[string]ProductCounters `json:"productStats"`
}

// NewLedgerStats 创建空统计
func NewLedgerStats() *LedgerStats {
	return &LedgerStats{ProductStats: make(map[string]ProductCounters)}
}

func (s *LedgerStats) ensure() {
	if s.ProductStats == nil {
		s.ProductStats = make(map[string]ProductCounters)
	}
}

// RecordAddToBag 累加商品的加购次数
func (s *LedgerStats) RecordAddToBag(productID string, quantity int) {
	s.ensure()
	c := s.ProductStats[productID]
	c.AddedToBag += int64(quantity)
	s.ProductStats[productID] = c
}

// RecordCheckout 记录一次下单事件：收入累加 total，下单次数加一，各行按数量累加
func (s *LedgerStats) RecordCheckout(items []CartItem, total float64) {
	s.ensure()
	s.TotalRevenue += total
	s.TotalCheckouts++
	for _, it := range items {
		c := s.ProductStats[it.ProductID]
		c.Checkouts += int64(it.Quantity)
		s.ProductStats[it.ProductID] = c
	}
}

// Reset 清零全部统计
func (s *LedgerStats) Reset() {
	s.TotalRevenue = 0
	s.TotalCheckouts = 0
	s.ProductStats = make(map[string]ProductCounters)
}

// Subtract 粗粒度修正：扣减收入与下单次数，结果不低于 0；不影响商品计数与订单日志
func (s *LedgerStats) Subtract(revenue float64, checkouts int64) {
	s.TotalRevenue = max(0, s.TotalRevenue-revenue)
	s.TotalCheckouts = max(0, s.TotalCheckouts-checkouts)
}

// Counters 查询商品计数，不存在时为零值
func (s *LedgerStats) Counters(productID string) ProductCounters {
	if s.ProductStats == nil {
		return ProductCounters{}
	}
	return s.ProductStats[productID]
}

// MostAddedToBag 返回加购次数严格最大的商品，并列取输入中靠前者；
// 列表为空或计数全为 0 时返回 nil
func (s *LedgerStats) MostAddedToBag(products []*Product) *Product {
	return s.mostBy(products, func(c ProductCounters) int64 { return c.AddedToBag })
}

// MostCheckedOut 返回下单件数严格最大的商品，规则同 MostAddedToBag
func (s *LedgerStats) MostCheckedOut(products []*Product) *Product {
	return s.mostBy(products, func(c ProductCounters) int64 { return c.Checkouts })
}

func (s *LedgerStats) mostBy(products []*Product, value func(ProductCounters) int64) *Product {
	var best *Product
	var bestVal int64
	for _, p := range products {
		if v := value(s.Counters(p.ID)); v > bestVal {
			best, bestVal = p, v
		}
	}
	return best
}

// JournalEntry 订单日志条目
type JournalEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Items     []CartItem     `json:"items"`
	Total     float64        `json:"total"`
	Method    CheckoutMethod `json:"method"`
}

// OrderJournal 订单日志，最新在前，最多 JournalCap 条
type OrderJournal []JournalEntry

// Prepend 在头部插入一条记录并截断到上限
func (j OrderJournal) Prepend(e JournalEntry) OrderJournal {
	out := make(OrderJournal, 0, min(len(j)+1, JournalCap))
	out = append(out, e)
	out = append(out, j...)
	if len(out) > JournalCap {
		out = out[:JournalCap]
	}
	return out
}

// Delete 删除指定下标的记录；不影响统计聚合
func (j OrderJournal) Delete(index int) (OrderJournal, error) {
	if index < 0 || index >= len(j) {
		return j, Errorf(ENOTFOUND, "journal.delete", "Order entry %d not found", index)
	}
	out := make(OrderJournal, 0, len(j)-1)
	out = append(out, j[:index]...)
	return append(out, j[index+1:]...), nil
}

// Recent 按时间倒序返回最近 n 条
func (j OrderJournal) Recent(n int) []JournalEntry {
	sorted := append([]JournalEntry(nil), j...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Timestamp.After(sorted[b].Timestamp)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// LedgerSummary 后台展示用的本地统计摘要
type LedgerSummary struct {
	TotalRevenue   float64        `json:"totalRevenue"`
	TotalCheckouts int64          `json:"totalCheckouts"`
	MostAddedToBag *ProductRank   `json:"mostAddedToBag"`
	MostCheckout   *ProductRank   `json:"mostCheckout"`
	RecentOrders   []JournalEntry `json:"recentOrders"`
}

// ProductRank 排行商品及其计数
type ProductRank struct {
	Product *Product `json:"product"`
	Count   int64    `json:"count"`
}

// Summarize 结合商品列表生成统计摘要
func Summarize(stats *LedgerStats, journal OrderJournal, products []*Product) *LedgerSummary {
	sum := &LedgerSummary{
		TotalRevenue:   stats.TotalRevenue,
		TotalCheckouts: stats.TotalCheckouts,
		RecentOrders:   journal.Recent(RecentOrdersLimit),
	}
	if p := stats.MostAddedToBag(products); p != nil {
		sum.MostAddedToBag = &ProductRank{Product: p, Count: stats.Counters(p.ID).AddedToBag}
	}
	if p := stats.MostCheckedOut(products); p != nil {
		sum.MostCheckout = &ProductRank{Product: p, Count: stats.Counters(p.ID).Checkouts}
	}
	return sum
}
