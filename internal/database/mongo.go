package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/config"
)

// ProductsCollection 商品集合名
const ProductsCollection = "products"

// MongoDB 封装 MongoDB 客户端与目标数据库
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
	logger *zap.Logger
}

// NewMongo 连接 MongoDB 并执行 Ping
func NewMongo(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("mongodb connected", zap.String("database", cfg.Database))
	return &MongoDB{Client: client, DB: client.Database(cfg.Database), logger: logger}, nil
}

// EnsureIndexes 创建商品集合索引：slug 唯一、分类、创建时间倒序
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(ProductsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_slug")},
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("idx_category")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	m.logger.Info("mongodb indexes ensured", zap.String("collection", ProductsCollection))
	return nil
}

// Close 断开连接
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
