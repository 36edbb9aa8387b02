package domain

// CatalogAggregateStats 由商品服务端计数汇总出的目录统计，
// 与设备级 LedgerStats 相互独立
type CatalogAggregateStats struct {
	TotalProducts  int      `json:"totalProducts"`
	TotalCheckouts int64    `json:"totalCheckouts"`
	TotalRevenue   float64  `json:"totalRevenue"`
	MostAddedToBag *Product `json:"mostAddedToBag"`
	MostCheckout   *Product `json:"mostCheckout"`
}

// ComputeCatalogStats 汇总商品计数：收入为 checkoutCount × price 之和；
// 排行取严格最大值，并列取靠前者，计数全为 0 时为 nil
func ComputeCatalogStats(products []*Product) *CatalogAggregateStats {
	stats := &CatalogAggregateStats{TotalProducts: len(products)}
	var bestAdded, bestCheckout int64
	for _, p := range products {
		stats.TotalCheckouts += p.CheckoutCount
		stats.TotalRevenue += float64(p.CheckoutCount) * p.Price
		if p.AddedToBagCount > bestAdded {
			stats.MostAddedToBag, bestAdded = p, p.AddedToBagCount
		}
		if p.CheckoutCount > bestCheckout {
			stats.MostCheckout, bestCheckout = p, p.CheckoutCount
		}
	}
	return stats
}
