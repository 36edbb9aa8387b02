package domain

import (
	"strings"
)

// categorySynonyms 搜索词到分类的同义词表
var categorySynonyms = map[string]Category{
	"tshirt":      CategoryTShirts,
	"tshirts":     CategoryTShirts,
	"t-shirt":     CategoryTShirts,
	"t-shirts":    CategoryTShirts,
	"shirt":       CategoryTShirts,
	"shirts":      CategoryTShirts,
	"tee":         CategoryTShirts,
	"tees":        CategoryTShirts,
	"hoodie":      CategoryHoodies,
	"hoodies":     CategoryHoodies,
	"sweatshirt":  CategoryHoodies,
	"sweatshirts": CategoryHoodies,
	"pant":        CategoryPants,
	"pants":       CategoryPants,
	"trouser":     CategoryPants,
	"trousers":    CategoryPants,
	"bottom":      CategoryPants,
	"bottoms":     CategoryPants,
}

// CategoryForWord 查找搜索词对应的分类
func CategoryForWord(word string) (Category, bool) {
	c, ok := categorySynonyms[strings.ToLower(word)]
	return c, ok
}

// CategoryNameMatch 分类词与名称中剩余词的组合条件
type CategoryNameMatch struct {
	Category   Category
	NamePhrase string
}

// SearchCriteria 由查询串解析出的析取条件，所有比较均为不区分大小写的子串匹配
type SearchCriteria struct {
	Tokens []string
	// Phrase 小写词以单个空格连接
	Phrase        string
	Categories    []Category
	CategoryNames []CategoryNameMatch
}

// ParseSearchQuery 解析查询串；空白查询返回 false，调用方应返回空结果
func ParseSearchQuery(query string) (*SearchCriteria, bool) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, false
	}

	c := &SearchCriteria{
		Tokens: tokens,
		Phrase: strings.Join(tokens, " "),
	}

	seen := make(map[Category]struct{})
	for _, word := range tokens {
		cat, ok := CategoryForWord(word)
		if !ok {
			continue
		}
		if _, dup := seen[cat]; !dup {
			seen[cat] = struct{}{}
			c.Categories = append(c.Categories, cat)
		}

		rest := make([]string, 0, len(tokens))
		for _, w := range tokens {
			if w != word {
				rest = append(rest, w)
			}
		}
		if len(rest) > 0 {
			c.CategoryNames = append(c.CategoryNames, CategoryNameMatch{
				Category:   cat,
				NamePhrase: strings.Join(rest, " "),
			})
		}
	}
	return c, true
}

// Matches 判断商品是否满足任一条件
func (c *SearchCriteria) Matches(p *Product) bool {
	name := strings.ToLower(p.Name)
	if strings.Contains(name, c.Phrase) {
		return true
	}
	for _, cat := range c.Categories {
		if p.Category == cat {
			return true
		}
	}
	if strings.Contains(strings.ToLower(p.Description), c.Phrase) {
		return true
	}
	for _, d := range p.Details {
		if strings.Contains(strings.ToLower(d), c.Phrase) {
			return true
		}
	}
	for _, cn := range c.CategoryNames {
		if p.Category == cn.Category && strings.Contains(name, cn.NamePhrase) {
			return true
		}
	}
	return false
}
