package domain

import "strings"

// CartItem 购物车行。价格与图片为加入时的快照，之后不再随商品更新。
// 合并依据为 (ProductID, Color, Size)，与行 ID 无关。
type CartItem struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Color      string  `json:"color"`
	Size       string  `json:"size"`
	Quantity   int     `json:"quantity"`
	Image      string  `json:"image"`
	ProductURL string  `json:"productUrl,omitempty"`
}

// Subtotal 行小计
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

func (i CartItem) sameLine(o CartItem) bool {
	return i.ProductID == o.ProductID && i.Color == o.Color && i.Size == o.Size
}

// Cart 购物车：行集合、总价与展开状态（仅用于展示）
type Cart struct {
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
	IsOpen bool       `json:"isOpen"`
}

// NewCart 创建空购物车
func NewCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

// AddItem 加入商品：已有相同 (商品, 颜色, 尺码) 的行则累加数量，否则以 item.ID 追加新行。
// 返回受影响的行。
func (c *Cart) AddItem(item CartItem) (CartItem, error) {
	if strings.TrimSpace(item.ProductID) == "" {
		return CartItem{}, Errorf(EINVALID, "cart.add", "productId is required")
	}
	if item.Quantity < 1 {
		return CartItem{}, Errorf(EINVALID, "cart.add", "quantity must be at least 1")
	}
	if item.Price < 0 {
		return CartItem{}, Errorf(EINVALID, "cart.add", "price must not be negative")
	}

	for i := range c.Items {
		if c.Items[i].sameLine(item) {
			c.Items[i].Quantity += item.Quantity
			c.recalculate()
			return c.Items[i], nil
		}
	}

	c.Items = append(c.Items, item)
	c.recalculate()
	return item, nil
}

// RemoveItem 删除行，返回是否存在该行
func (c *Cart) RemoveItem(lineID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.recalculate()
			return true
		}
	}
	return false
}

// UpdateQuantity 设置行数量；qty <= 0 等同于删除。不设上限。
func (c *Cart) UpdateQuantity(lineID string, qty int) bool {
	if qty <= 0 {
		return c.RemoveItem(lineID)
	}
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items[i].Quantity = qty
			c.recalculate()
			return true
		}
	}
	return false
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Total = 0
}

// ToggleOpen 切换展开状态
func (c *Cart) ToggleOpen() {
	c.IsOpen = !c.IsOpen
}

// ItemCount 商品件数
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) recalculate() {
	total := 0.0
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	c.Total = total
}
