package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter 进程内固定窗口限流器，单实例部署或未配置 Redis 时使用
type MemoryLimiter struct {
	mu      sync.Mutex
	config  *Config
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	start time.Time
	count int64
}

// NewMemoryLimiter 创建进程内限流器
func NewMemoryLimiter(config *Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return m.AllowN(ctx, key, 1)
}

func (m *MemoryLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	now := m.now()
	start := windowStart(now, m.config.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[key]
	if w == nil || !w.start.Equal(start) {
		w = &memoryWindow{start: start}
		m.windows[key] = w
		m.gcLocked(start)
	}

	if w.count+n > m.config.Rate {
		return &LimitResult{
			Allowed:       false,
			Remaining:     max(0, m.config.Rate-w.count),
			RetryAfter:    start.Add(m.config.Window).Sub(now),
			TotalRequests: w.count,
		}, nil
	}

	w.count += n
	return &LimitResult{
		Allowed:       true,
		Remaining:     m.config.Rate - w.count,
		TotalRequests: w.count,
	}, nil
}

// gcLocked 清理已过期窗口，防止 key 无限增长
func (m *MemoryLimiter) gcLocked(current time.Time) {
	for k, w := range m.windows {
		if w.start.Before(current) {
			delete(m.windows, k)
		}
	}
}

func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	start := windowStart(m.now(), m.config.Window)

	m.mu.Lock()
	defer m.mu.Unlock()

	var used int64
	if w := m.windows[key]; w != nil && w.start.Equal(start) {
		used = w.count
	}
	return &LimitInfo{
		Limit:     m.config.Rate,
		Remaining: max(0, m.config.Rate-used),
		Window:    m.config.Window,
		ResetTime: start.Add(m.config.Window),
	}, nil
}
