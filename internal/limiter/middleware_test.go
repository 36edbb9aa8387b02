package limiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type failingLimiter struct{ MemoryLimiter }

func (f *failingLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return nil, errors.New("redis down")
}

func newLimitedEngine(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", LoginRateLimitMiddleware(l, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	r := newLimitedEngine(NewMemoryLimiter(&Config{Rate: 2, Window: time.Minute}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		last = w
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two attempts should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third attempt should be limited, got %d", codes[2])
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client should pass, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	r := newLimitedEngine(&failingLimiter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected request to pass when limiter fails, got %d", w.Code)
	}
}
