// Package domain 定义店铺的领域模型与核心业务规则：商品、购物车、本地统计账本。
// 领域模型独立于存储与传输层。
package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category 商品分类
type Category string

const (
	CategoryTShirts Category = "tshirts"
	CategoryHoodies Category = "hoodies"
	CategoryPants   Category = "pants"
)

// AllCategories 返回全部分类，顺序固定
func AllCategories() []Category {
	return []Category{CategoryTShirts, CategoryHoodies, CategoryPants}
}

// IsValid 判断分类是否在枚举集合内
func (c Category) IsValid() bool {
	switch c {
	case CategoryTShirts, CategoryHoodies, CategoryPants:
		return true
	}
	return false
}

// Color 商品颜色，归属于商品，没有独立生命周期
type Color struct {
	Name   string      `json:"name"`
	Value  string      `json:"value"`
	Images ColorImages `json:"images"`
}

// Product 商品领域模型
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Price           float64   `json:"price"`
	Category        Category  `json:"category"`
	Description     string    `json:"description"`
	Details         []string  `json:"details"`
	AvailableSizes  []string  `json:"availableSizes"`
	Sizes           []string  `json:"sizes"`
	Colors          []Color   `json:"colors"`
	InStock         bool      `json:"inStock"`
	AddedToBagCount int64     `json:"addedToBagCount"`
	CheckoutCount   int64     `json:"checkoutCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CoverImage 封面图：第一个颜色的正面图，每次读取时计算
func (p *Product) CoverImage() ImageSlot {
	if len(p.Colors) == 0 {
		return MissingImage()
	}
	return p.Colors[0].Images.Front
}

// ImageRefs 汇总全部颜色的真实图片引用，每个引用只出现一次
func (p *Product) ImageRefs() []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, c := range p.Colors {
		for _, ref := range c.Images.Refs() {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

type productJSON Product

// MarshalJSON 在输出中附加派生字段 coverImage 与 images
func (p Product) MarshalJSON() ([]byte, error) {
	cover := p.CoverImage()
	return json.Marshal(struct {
		productJSON
		CoverImage ImageSlot `json:"coverImage"`
		Images     []string  `json:"images"`
	}{
		productJSON: productJSON(p),
		CoverImage:  cover,
		Images:      []string{cover.String()},
	})
}

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify 由名称生成 slug：小写，空白替换为连字符，去除 [a-z0-9-] 之外的字符
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugInvalid.ReplaceAllString(s, "")
}

// NewProductID 生成新的商品 ID（24 位十六进制 ObjectID）
func NewProductID() string {
	return primitive.NewObjectID().Hex()
}

// ValidateProductID 校验商品 ID 格式
func ValidateProductID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return Errorf(EINVALID, "product.id", "Invalid product ID")
	}
	return nil
}

// ParseCategory 解析分类，未知分类返回 EINVALID
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", Errorf(EINVALID, "product.category", "Invalid category: %s", s)
	}
	return c, nil
}
