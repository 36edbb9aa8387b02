package limiter

import (
	"context"
	"testing"
	"time"
)

func newTestMemoryLimiter(rate int64, window time.Duration) (*MemoryLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(&Config{Rate: rate, Window: window})
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_AllowWithinWindow(t *testing.T) {
	ctx := context.Background()
	l, now := newTestMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "ip:1")
		if err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != int64(2-i) {
			t.Errorf("remaining = %d, want %d", res.Remaining, 2-i)
		}
	}

	*now = now.Add(20 * time.Second)
	res, _ := l.Allow(ctx, "ip:1")
	if res.Allowed {
		t.Fatal("4th request should be limited")
	}
	if res.RetryAfter != 40*time.Second {
		t.Errorf("retry after = %v, want 40s", res.RetryAfter)
	}

	other, _ := l.Allow(ctx, "ip:2")
	if !other.Allowed {
		t.Error("keys must be counted independently")
	}
}

func TestMemoryLimiter_NewWindowResets(t *testing.T) {
	ctx := context.Background()
	l, now := newTestMemoryLimiter(1, time.Minute)

	l.Allow(ctx, "k")
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("second request should be limited")
	}

	*now = now.Add(time.Minute)
	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Error("request in next window should be allowed")
	}
}

func TestMemoryLimiter_ResetAndInfo(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestMemoryLimiter(5, time.Minute)

	l.AllowN(ctx, "k", 3)
	info, err := l.GetInfo(ctx, "k")
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.Limit != 5 || info.Remaining != 2 {
		t.Errorf("info = %+v", info)
	}

	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	info, _ = l.GetInfo(ctx, "k")
	if info.Remaining != 5 {
		t.Errorf("remaining after reset = %d", info.Remaining)
	}
}

func TestNew_WithoutRedisUsesMemory(t *testing.T) {
	l, err := New(nil, &Config{Rate: 1, Window: time.Minute})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := l.(*MemoryLimiter); !ok {
		t.Errorf("expected *MemoryLimiter, got %T", l)
	}
}

func TestNewFixedWindowLimiter_Validation(t *testing.T) {
	if _, err := NewFixedWindowLimiter(nil, &Config{Rate: 1, Window: time.Minute}); err == nil {
		t.Error("expected error without redis client")
	}
}
