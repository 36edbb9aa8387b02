package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地磁盘存储，文件平铺在 basePath 下，通过 baseURL 对外提供
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage 创建本地存储，目录不存在时自动创建
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Dir 返回存储目录，供静态文件服务使用
func (s *LocalStorage) Dir() string {
	return s.basePath
}

// BaseURL 返回公开访问前缀
func (s *LocalStorage) BaseURL() string {
	return s.baseURL
}

func (s *LocalStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return s.URL(key), nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return s.baseURL + "/" + key
}

// KeyFromRef 只认 baseURL 下的平铺文件名
func (s *LocalStorage) KeyFromRef(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok || !isPlainKey(key) {
		return "", false
	}
	return key, true
}

// path 拒绝包含路径分隔符或 .. 的键
func (s *LocalStorage) path(key string) (string, error) {
	if !isPlainKey(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.basePath, key), nil
}

func isPlainKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && filepath.Base(key) == key
}
