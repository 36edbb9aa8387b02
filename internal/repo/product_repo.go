// Package repo 实现数据访问层：商品目录（MySQL / MongoDB）、购物车会话与本地统计账本。
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/MorseWayne/players_club/internal/domain"
)

// ProductRepository 商品目录的持久化接口。
// 查询不到时 GetByID / GetBySlug 返回 (nil, nil)；列表按创建时间倒序。
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error)
	// Search 返回满足任一条件的商品，结果已去重
	Search(ctx context.Context, criteria *domain.SearchCriteria) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	// IncrementCounters 原子累加服务端加购 / 下单计数
	IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error
}

// mysqlDuplicateEntry 唯一键冲突
const mysqlDuplicateEntry = 1062

const productColumns = `id, name, slug, price, category, description, details, available_sizes, sizes, colors,
	in_stock, added_to_bag_count, checkout_count, created_at, updated_at`

// productRepo 基于 MySQL 的实现，列表类字段以 JSON 列存储
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建 MySQL 商品仓储
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

type productJSONColumns struct {
	details, availableSizes, sizes, colors []byte
}

func encodeProductColumns(p *domain.Product) (*productJSONColumns, error) {
	var (
		cols productJSONColumns
		err  error
	)
	if cols.details, err = json.Marshal(nonNil(p.Details)); err != nil {
		return nil, fmt.Errorf("failed to encode details: %w", err)
	}
	if cols.availableSizes, err = json.Marshal(nonNil(p.AvailableSizes)); err != nil {
		return nil, fmt.Errorf("failed to encode available sizes: %w", err)
	}
	if cols.sizes, err = json.Marshal(nonNil(p.Sizes)); err != nil {
		return nil, fmt.Errorf("failed to encode sizes: %w", err)
	}
	colors := p.Colors
	if colors == nil {
		colors = []domain.Color{}
	}
	if cols.colors, err = json.Marshal(colors); err != nil {
		return nil, fmt.Errorf("failed to encode colors: %w", err)
	}
	return &cols, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create 插入商品，ID 为空时生成新 ID
func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = domain.NewProductID()
	}
	cols, err := encodeProductColumns(p)
	if err != nil {
		return err
	}

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Slug, p.Price, string(p.Category), p.Description,
		cols.details, cols.availableSizes, cols.sizes, cols.colors,
		p.InStock, p.AddedToBagCount, p.CheckoutCount, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapMySQLError(err, "repo.product.create", p.Slug)
	}
	return nil
}

// GetByID 根据 ID 获取商品
func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getOne(ctx, "repo.product.get_by_id", `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

// GetBySlug 根据 slug 获取商品
func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getOne(ctx, "repo.product.get_by_slug", `SELECT `+productColumns+` FROM products WHERE slug = ?`, slug)
}

func (r *productRepo) getOne(ctx context.Context, op, query string, arg any) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapMySQLError(err, op, "")
	}
	return p, nil
}

// List 获取全部商品
func (r *productRepo) List(ctx context.Context) ([]*domain.Product, error) {
	return r.query(ctx, "repo.product.list",
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

// ListByCategory 获取分类下的商品
func (r *productRepo) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	return r.query(ctx, "repo.product.list_by_category",
		`SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY created_at DESC`, string(category))
}

// Search 先用 LIKE 粗筛，再以领域规则精确过滤，保证与其它存储实现的语义一致
func (r *productRepo) Search(ctx context.Context, c *domain.SearchCriteria) ([]*domain.Product, error) {
	where, args := buildSearchWhere(c)
	candidates, err := r.query(ctx, "repo.product.search",
		`SELECT `+productColumns+` FROM products WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	return filterMatches(c, candidates), nil
}

func buildSearchWhere(c *domain.SearchCriteria) (string, []any) {
	phrase := "%" + escapeLike(c.Phrase) + "%"
	conds := []string{
		"LOWER(name) LIKE ?",
		"LOWER(description) LIKE ?",
		"LOWER(CAST(details AS CHAR)) LIKE ?",
	}
	args := []any{phrase, phrase, phrase}

	if len(c.Categories) > 0 {
		marks := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			marks[i] = "?"
			args = append(args, string(cat))
		}
		conds = append(conds, "category IN ("+strings.Join(marks, ", ")+")")
	}
	for _, cn := range c.CategoryNames {
		conds = append(conds, "(category = ? AND LOWER(name) LIKE ?)")
		args = append(args, string(cn.Category), "%"+escapeLike(cn.NamePhrase)+"%")
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func filterMatches(c *domain.SearchCriteria, products []*domain.Product) []*domain.Product {
	out := make([]*domain.Product, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup || !c.Matches(p) {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Update 整体覆盖商品字段，计数器与创建时间不变
func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	cols, err := encodeProductColumns(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = ?, slug = ?, price = ?, category = ?, description = ?, details = ?, available_sizes = ?,
			sizes = ?, colors = ?, in_stock = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Slug, p.Price, string(p.Category), p.Description,
		cols.details, cols.availableSizes, cols.sizes, cols.colors,
		p.InStock, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return mapMySQLError(err, "repo.product.update", p.Slug)
	}
	return requireAffected(result, "repo.product.update", p.ID)
}

// Delete 物理删除商品
func (r *productRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return mapMySQLError(err, "repo.product.delete", "")
	}
	return requireAffected(result, "repo.product.delete", id)
}

// IncrementCounters 原子累加计数
func (r *productRepo) IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET added_to_bag_count = added_to_bag_count + ?, checkout_count = checkout_count + ? WHERE id = ?`,
		addedToBag, checkouts, id,
	)
	if err != nil {
		return mapMySQLError(err, "repo.product.increment_counters", "")
	}
	return requireAffected(result, "repo.product.increment_counters", id)
}

func (r *productRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapMySQLError(err, op, "")
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapMySQLError(err, op, "")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapMySQLError(err, op, "")
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p        domain.Product
		category string
		cols     productJSONColumns
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Price, &category, &p.Description,
		&cols.details, &cols.availableSizes, &cols.sizes, &cols.colors,
		&p.InStock, &p.AddedToBagCount, &p.CheckoutCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = domain.Category(category)

	for _, f := range []struct {
		raw  []byte
		dest any
	}{
		{cols.details, &p.Details},
		{cols.availableSizes, &p.AvailableSizes},
		{cols.sizes, &p.Sizes},
		{cols.colors, &p.Colors},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dest); err != nil {
			return nil, fmt.Errorf("failed to decode product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func requireAffected(result sql.Result, op, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, op, "Catalog storage unavailable")
	}
	if n == 0 {
		return domain.Errorf(domain.ENOTFOUND, op, "Product not found")
	}
	return nil
}

// mapMySQLError 唯一键冲突映射为 ECONFLICT，其余视为存储不可用
func mapMySQLError(err error, op, slug string) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return &domain.Error{
			Code:    domain.ECONFLICT,
			Op:      op,
			Message: fmt.Sprintf("A product with slug %q already exists", slug),
			Err:     err,
		}
	}
	return domain.WrapError(err, domain.EUNAVAILABLE, op, "Catalog storage unavailable")
}
