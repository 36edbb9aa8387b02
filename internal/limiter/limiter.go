// Package limiter 提供固定窗口限流（Redis 与进程内两种实现）及 gin 中间件
package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed       bool          `json:"allowed"`        // 是否允许通过
	Remaining     int64         `json:"remaining"`      // 剩余配额
	RetryAfter    time.Duration `json:"retry_after"`    // 建议重试时间
	TotalRequests int64         `json:"total_requests"` // 当前窗口内的请求数
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// AllowN 检查是否允许N个请求通过
	AllowN(ctx context.Context, key string, n int64) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error

	// GetInfo 获取限流信息
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)
}

// LimitInfo 限流信息
type LimitInfo struct {
	Limit     int64         `json:"limit"`
	Remaining int64         `json:"remaining"`
	Window    time.Duration `json:"window"`
	ResetTime time.Time     `json:"reset_time"`
}

// Config 限流配置
type Config struct {
	Rate      int64         `json:"rate"`       // 每个窗口允许的请求数
	Window    time.Duration `json:"window"`     // 窗口长度
	KeyPrefix string        `json:"key_prefix"` // Key前缀
}

// windowStart 计算 now 所在窗口的起点
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

// New 按是否有 Redis 客户端选择实现：有则跨实例共享计数，否则使用进程内计数
func New(client redis.Cmdable, cfg *Config) (Limiter, error) {
	if client == nil {
		return NewMemoryLimiter(cfg), nil
	}
	return NewFixedWindowLimiter(client, cfg)
}
