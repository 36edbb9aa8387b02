package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DetailLines 商品详情行。既接受 JSON 数组，也接受以换行分隔的单个字符串；
// 解析后每行去除首尾空白并丢弃空行。
type DetailLines []string

func (d *DetailLines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}

	var raw []string
	if len(data) > 0 && data[0] == '"' {
		var block string
		if err := json.Unmarshal(data, &block); err != nil {
			return err
		}
		raw = strings.Split(block, "\n")
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("details must be a string or an array of strings: %w", err)
	}

	*d = cleanLines(raw)
	return nil
}

func cleanLines(raw []string) DetailLines {
	lines := make(DetailLines, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ColorImagesInput 提交的颜色图片
type ColorImagesInput struct {
	Front    string   `json:"front" validate:"realimage"`
	Back     string   `json:"back" validate:"realimage"`
	Optional []string `json:"optional"`
}

// ColorInput 提交的颜色
type ColorInput struct {
	Name   string            `json:"name"`
	Value  string            `json:"value"`
	Images *ColorImagesInput `json:"images" validate:"required"`
}

// ProductInput 后台创建商品的请求体
type ProductInput struct {
	Name           string       `json:"name" validate:"nonblank"`
	Price          *float64     `json:"price" validate:"required,gt=0"`
	Category       Category     `json:"category" validate:"category"`
	Description    string       `json:"description" validate:"nonblank"`
	Details        DetailLines  `json:"details" validate:"min=1"`
	AvailableSizes []string     `json:"availableSizes" validate:"min=1"`
	Sizes          []string     `json:"sizes"`
	Colors         []ColorInput `json:"colors" validate:"min=1,dive"`
	InStock        *bool        `json:"inStock"`
}

// ProductPatch 部分更新请求体，nil 字段表示不修改；
// details / sizes / colors 出现时整体替换。
type ProductPatch struct {
	Name           *string      `json:"name"`
	Price          *float64     `json:"price"`
	Category       *Category    `json:"category"`
	Description    *string      `json:"description"`
	Details        DetailLines  `json:"details"`
	AvailableSizes []string     `json:"availableSizes"`
	Sizes          []string     `json:"sizes"`
	Colors         []ColorInput `json:"colors"`
	InStock        *bool        `json:"inStock"`
}

// Normalize 在校验前整理输入：去除空白、丢弃空尺码与空详情行
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	if in.Details != nil {
		in.Details = cleanLines(in.Details)
	}
	in.AvailableSizes = cleanSizes(in.AvailableSizes)
	in.Sizes = cleanSizes(in.Sizes)
}

func cleanSizes(sizes []string) []string {
	if sizes == nil {
		return nil
	}
	out := make([]string, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, s := range sizes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Apply 将补丁合并到输入上，返回新的输入
func (in ProductInput) Apply(p *ProductPatch) ProductInput {
	if p == nil {
		return in
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Price != nil {
		price := *p.Price
		in.Price = &price
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Details != nil {
		in.Details = p.Details
	}
	if p.AvailableSizes != nil {
		in.AvailableSizes = p.AvailableSizes
	}
	if p.Sizes != nil {
		in.Sizes = p.Sizes
	}
	if p.Colors != nil {
		in.Colors = p.Colors
	}
	if p.InStock != nil {
		inStock := *p.InStock
		in.InStock = &inStock
	}
	return in
}

// ToInput 将已存储商品还原为输入，用于更新时整体重新校验
func (p *Product) ToInput() ProductInput {
	price := p.Price
	inStock := p.InStock
	colors := make([]ColorInput, 0, len(p.Colors))
	for _, c := range p.Colors {
		colors = append(colors, ColorInput{
			Name:  c.Name,
			Value: c.Value,
			Images: &ColorImagesInput{
				Front:    c.Images.Front.String(),
				Back:     c.Images.Back.String(),
				Optional: append([]string(nil), c.Images.Optional...),
			},
		})
	}
	return ProductInput{
		Name:           p.Name,
		Price:          &price,
		Category:       p.Category,
		Description:    p.Description,
		Details:        append(DetailLines(nil), p.Details...),
		AvailableSizes: append([]string(nil), p.AvailableSizes...),
		Sizes:          append([]string(nil), p.Sizes...),
		Colors:         colors,
		InStock:        &inStock,
	}
}

// BuildProduct 由已校验的输入构造商品：派生 slug、补全颜色默认值、
// 过滤占位附加图，并保证 sizes 包含全部可售尺码。计数器与 ID 由调用方设置。
func BuildProduct(in ProductInput, now time.Time) *Product {
	p := &Product{
		Name:           in.Name,
		Slug:           Slugify(in.Name),
		Category:       in.Category,
		Description:    in.Description,
		Details:        append([]string{}, in.Details...),
		AvailableSizes: append([]string{}, in.AvailableSizes...),
		Sizes:          unionSizes(in.Sizes, in.AvailableSizes),
		Colors:         make([]Color, 0, len(in.Colors)),
		InStock:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}

	for i, c := range in.Colors {
		p.Colors = append(p.Colors, buildColor(i, c))
	}
	return p
}

func buildColor(i int, c ColorInput) Color {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = fmt.Sprintf("Color %d", i+1)
	}
	value := strings.TrimSpace(c.Value)
	if value == "" {
		value = slugSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(c.Name)), "-")
	}
	if value == "" {
		value = fmt.Sprintf("color-%d", i+1)
	}

	color := Color{Name: name, Value: value, Images: ColorImages{Optional: []string{}}}
	if c.Images != nil {
		color.Images = ColorImages{
			Front:    ParseImageSlot(c.Images.Front),
			Back:     ParseImageSlot(c.Images.Back),
			Optional: FilterOptionalImages(c.Images.Optional),
		}
	}
	return color
}

// unionSizes 以 sizes 为基础，追加其中缺失的可售尺码
func unionSizes(sizes, available []string) []string {
	out := make([]string, 0, len(sizes)+len(available))
	seen := make(map[string]struct{}, len(sizes)+len(available))
	for _, list := range [][]string{sizes, available} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
