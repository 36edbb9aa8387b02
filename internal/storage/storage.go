// Package storage 负责商品图片的存放：本地磁盘或 S3 兼容对象存储，
// 以及图片引用与存储键之间的转换。
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/MorseWayne/players_club/internal/config"
)

// Storage 图片存储后端
type Storage interface {
	// Put 写入对象并返回可公开访问的引用
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	// Delete 删除对象，对象不存在时返回 nil
	Delete(ctx context.Context, key string) error
	// URL 返回对象的公开引用
	URL(key string) string
	// KeyFromRef 判断引用是否属于本后端，是则返回存储键
	KeyFromRef(ref string) (string, bool)
}

// New 按配置创建存储后端
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalDir, cfg.LocalURL)
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3KeyID,
			SecretAccessKey: cfg.S3Secret,
			PublicURL:       cfg.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
