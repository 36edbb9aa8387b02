package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MorseWayne/players_club/internal/database"
	"github.com/MorseWayne/players_club/internal/domain"
)

// productDoc 商品在 MongoDB 中的文档结构
type productDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	Slug            string             `bson:"slug"`
	Price           float64            `bson:"price"`
	Category        string             `bson:"category"`
	Description     string             `bson:"description"`
	Details         []string           `bson:"details"`
	AvailableSizes  []string           `bson:"availableSizes"`
	Sizes           []string           `bson:"sizes"`
	Colors          []colorDoc         `bson:"colors"`
	InStock         bool               `bson:"inStock"`
	AddedToBagCount int64              `bson:"addedToBagCount"`
	CheckoutCount   int64              `bson:"checkoutCount"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

type colorDoc struct {
	Name   string         `bson:"name"`
	Value  string         `bson:"value"`
	Images colorImagesDoc `bson:"images"`
}

// colorImagesDoc 缺失的图片以占位哨兵存储
type colorImagesDoc struct {
	Front    string   `bson:"front"`
	Back     string   `bson:"back"`
	Optional []string `bson:"optional"`
}

func toProductDoc(p *domain.Product) (*productDoc, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, domain.Errorf(domain.EINVALID, "repo.product.encode", "Invalid product ID")
	}
	colors := make([]colorDoc, 0, len(p.Colors))
	for _, c := range p.Colors {
		colors = append(colors, colorDoc{
			Name:  c.Name,
			Value: c.Value,
			Images: colorImagesDoc{
				Front:    c.Images.Front.String(),
				Back:     c.Images.Back.String(),
				Optional: nonNil(c.Images.Optional),
			},
		})
	}
	return &productDoc{
		ID:              oid,
		Name:            p.Name,
		Slug:            p.Slug,
		Price:           p.Price,
		Category:        string(p.Category),
		Description:     p.Description,
		Details:         nonNil(p.Details),
		AvailableSizes:  nonNil(p.AvailableSizes),
		Sizes:           nonNil(p.Sizes),
		Colors:          colors,
		InStock:         p.InStock,
		AddedToBagCount: p.AddedToBagCount,
		CheckoutCount:   p.CheckoutCount,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}, nil
}

func (d *productDoc) toDomain() *domain.Product {
	colors := make([]domain.Color, 0, len(d.Colors))
	for _, c := range d.Colors {
		colors = append(colors, domain.Color{
			Name:  c.Name,
			Value: c.Value,
			Images: domain.ColorImages{
				Front:    domain.ParseImageSlot(c.Images.Front),
				Back:     domain.ParseImageSlot(c.Images.Back),
				Optional: nonNil(c.Images.Optional),
			},
		})
	}
	return &domain.Product{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Slug:            d.Slug,
		Price:           d.Price,
		Category:        domain.Category(d.Category),
		Description:     d.Description,
		Details:         nonNil(d.Details),
		AvailableSizes:  nonNil(d.AvailableSizes),
		Sizes:           nonNil(d.Sizes),
		Colors:          colors,
		InStock:         d.InStock,
		AddedToBagCount: d.AddedToBagCount,
		CheckoutCount:   d.CheckoutCount,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// mongoProductRepo 基于 MongoDB 的实现
type mongoProductRepo struct {
	coll *mongo.Collection
}

// NewMongoProductRepository 创建 MongoDB 商品仓储
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{coll: db.Collection(database.ProductsCollection)}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (r *mongoProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = domain.NewProductID()
	}
	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return mapMongoError(err, "repo.product.create", p.Slug)
	}
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, "repo.product.get_by_id", bson.M{"_id": oid})
}

func (r *mongoProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, "repo.product.get_by_slug", bson.M{"slug": slug})
}

func (r *mongoProductRepo) findOne(ctx context.Context, op string, filter bson.M) (*domain.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapMongoError(err, op, "")
	}
	return doc.toDomain(), nil
}

func (r *mongoProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	return r.find(ctx, "repo.product.list", bson.M{})
}

func (r *mongoProductRepo) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	return r.find(ctx, "repo.product.list_by_category", bson.M{"category": string(category)})
}

func (r *mongoProductRepo) Search(ctx context.Context, c *domain.SearchCriteria) ([]*domain.Product, error) {
	candidates, err := r.find(ctx, "repo.product.search", buildMongoSearchFilter(c))
	if err != nil {
		return nil, err
	}
	return filterMatches(c, candidates), nil
}

func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func buildMongoSearchFilter(c *domain.SearchCriteria) bson.M {
	phrase := containsPattern(c.Phrase)
	or := bson.A{
		bson.M{"name": phrase},
		bson.M{"description": phrase},
		bson.M{"details": phrase},
	}
	if len(c.Categories) > 0 {
		cats := make(bson.A, 0, len(c.Categories))
		for _, cat := range c.Categories {
			cats = append(cats, string(cat))
		}
		or = append(or, bson.M{"category": bson.M{"$in": cats}})
	}
	for _, cn := range c.CategoryNames {
		or = append(or, bson.M{"category": string(cn.Category), "name": containsPattern(cn.NamePhrase)})
	}
	return bson.M{"$or": or}
}

func (r *mongoProductRepo) Update(ctx context.Context, p *domain.Product) error {
	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}
	set := bson.M{
		"name":           doc.Name,
		"slug":           doc.Slug,
		"price":          doc.Price,
		"category":       doc.Category,
		"description":    doc.Description,
		"details":        doc.Details,
		"availableSizes": doc.AvailableSizes,
		"sizes":          doc.Sizes,
		"colors":         doc.Colors,
		"inStock":        doc.InStock,
		"updatedAt":      doc.UpdatedAt,
	}
	res, err := r.coll.UpdateByID(ctx, doc.ID, bson.M{"$set": set})
	if err != nil {
		return mapMongoError(err, "repo.product.update", p.Slug)
	}
	if res.MatchedCount == 0 {
		return domain.Errorf(domain.ENOTFOUND, "repo.product.update", "Product not found")
	}
	return nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Errorf(domain.ENOTFOUND, "repo.product.delete", "Product not found")
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapMongoError(err, "repo.product.delete", "")
	}
	if res.DeletedCount == 0 {
		return domain.Errorf(domain.ENOTFOUND, "repo.product.delete", "Product not found")
	}
	return nil
}

func (r *mongoProductRepo) IncrementCounters(ctx context.Context, id string, addedToBag, checkouts int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Errorf(domain.ENOTFOUND, "repo.product.increment_counters", "Product not found")
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$inc": bson.M{
		"addedToBagCount": addedToBag,
		"checkoutCount":   checkouts,
	}})
	if err != nil {
		return mapMongoError(err, "repo.product.increment_counters", "")
	}
	if res.MatchedCount == 0 {
		return domain.Errorf(domain.ENOTFOUND, "repo.product.increment_counters", "Product not found")
	}
	return nil
}

func (r *mongoProductRepo) find(ctx context.Context, op string, filter bson.M) ([]*domain.Product, error) {
	cur, err := r.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, mapMongoError(err, op, "")
	}
	defer cur.Close(ctx)

	products := []*domain.Product{}
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoError(err, op, "")
	}
	return products, nil
}

func mapMongoError(err error, op, slug string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.Error{
			Code:    domain.ECONFLICT,
			Op:      op,
			Message: fmt.Sprintf("A product with slug %q already exists", slug),
			Err:     err,
		}
	}
	return domain.WrapError(err, domain.EUNAVAILABLE, op, "Catalog storage unavailable")
}
