package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
)

var keyWhitespace = regexp.MustCompile(`\s+`)

// Resolver 将上传的图片写入存储并返回引用，删除时只处理属于当前后端的引用
type Resolver struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver 创建图片解析器
func NewResolver(s Storage, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{storage: s, logger: logger, now: time.Now}
}

// ObjectKey 生成对象键：<毫秒时间戳>-<去除路径、空白替换为连字符的文件名>
func (r *Resolver) ObjectKey(suggestedName string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(suggestedName), `\`, "/"))
	name = keyWhitespace.ReplaceAllString(name, "-")
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("%d-%s", r.now().UnixMilli(), name)
}

// Store 写入图片数据并返回引用
func (r *Resolver) Store(ctx context.Context, data []byte, suggestedName, contentType string) (string, error) {
	key := r.ObjectKey(suggestedName)
	ref, err := r.storage.Put(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", domain.WrapError(err, domain.EUNAVAILABLE, "storage.store", "Image storage unavailable")
	}
	r.logger.Info("image stored", zap.String("key", key), zap.Int("size", len(data)))
	return ref, nil
}

// Delete 删除引用对应的图片；占位引用与外部引用直接忽略
func (r *Resolver) Delete(ctx context.Context, ref string) error {
	if domain.IsPlaceholderRef(ref) {
		return nil
	}
	key, ok := r.storage.KeyFromRef(strings.TrimSpace(ref))
	if !ok {
		r.logger.Debug("skip foreign image reference", zap.String("ref", ref))
		return nil
	}
	if err := r.storage.Delete(ctx, key); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, "storage.delete", "Image storage unavailable")
	}
	return nil
}
