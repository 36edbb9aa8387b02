package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/cache"
	"github.com/MorseWayne/players_club/internal/resp"
)

// HeaderIdempotencyKey 幂等键请求头
const HeaderIdempotencyKey = "X-Idempotency-Key"

// IdempotencyConfig 幂等性中间件配置
type IdempotencyConfig struct {
	Store cache.Cache

	// 幂等键头名称
	IdempotencyKeyHeader string

	// 跳过的方法
	SkipMethods []string

	// 幂等键保留时长
	CacheTTL time.Duration

	// KeyPrefix 存储键前缀，按路由区分
	KeyPrefix string

	Logger *zap.Logger
}

// DefaultIdempotencyConfig 默认幂等性配置
func DefaultIdempotencyConfig(store cache.Cache) *IdempotencyConfig {
	return &IdempotencyConfig{
		Store:                store,
		IdempotencyKeyHeader: HeaderIdempotencyKey,
		SkipMethods:          []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		CacheTTL:             24 * time.Hour,
		KeyPrefix:            "idempotency",
	}
}

// IdempotencyMiddleware 同一幂等键只放行第一次请求，重复请求返回 409。
// 未携带幂等键的请求直接放行；存储故障时放行并记录日志。
// 处理失败（非 2xx）时释放幂等键，允许客户端重试。
func IdempotencyMiddleware(cfg *IdempotencyConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipMethods))
	for _, m := range cfg.SkipMethods {
		skip[m] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.Method]; ok {
			c.Next()
			return
		}
		key := c.GetHeader(cfg.IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		reqID := RequestIDFromContext(ctx)
		storeKey := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, c.FullPath(), key)

		acquired, err := cfg.Store.SetNX(ctx, storeKey, reqID, cfg.CacheTTL)
		if err != nil {
			logger.Warn("idempotency store unavailable, request allowed",
				zap.String("request_id", reqID),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !acquired {
			logger.Info("duplicate request rejected",
				zap.String("request_id", reqID),
				zap.String("idempotency_key", key),
			)
			resp.Error(c.Writer, http.StatusConflict, resp.CodeConflict, "Duplicate request", reqID, "")
			c.Abort()
			return
		}

		c.Set("idempotency_key", key)
		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			if err := cfg.Store.Del(ctx, storeKey); err != nil {
				logger.Warn("failed to release idempotency key",
					zap.String("request_id", reqID),
					zap.Error(err),
				)
			}
		}
	}
}
