package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/middleware"
	"github.com/MorseWayne/players_club/internal/resp"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Limiter Limiter

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 限流器出错时的处理函数
	ErrorHandler func(*gin.Context, error)

	// 触发限流时的处理函数
	OnLimitReached func(*gin.Context, *LimitResult)

	// 是否跳过限流检查
	Skip func(*gin.Context) bool

	Headers *HeaderConfig
	Logger  *zap.Logger
}

// HeaderConfig 响应头配置
type HeaderConfig struct {
	Enable           bool
	RemainingHeader  string // X-RateLimit-Remaining
	RetryAfterHeader string // Retry-After
}

// DefaultHeaderConfig 默认头配置
func DefaultHeaderConfig() *HeaderConfig {
	return &HeaderConfig{
		Enable:           true,
		RemainingHeader:  "X-RateLimit-Remaining",
		RetryAfterHeader: "Retry-After",
	}
}

// DefaultKeyGenerator 默认Key生成器（基于IP）
func DefaultKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = failOpen(config.Logger)
	}
	if config.OnLimitReached == nil {
		config.OnLimitReached = defaultOnLimitReached
	}
	if config.Headers == nil {
		config.Headers = DefaultHeaderConfig()
	}

	return func(c *gin.Context) {
		if config.Skip != nil && config.Skip(c) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, config.KeyGenerator(c))
		if err != nil {
			config.ErrorHandler(c, err)
			return
		}

		if config.Headers.Enable {
			setRateLimitHeaders(c, result, config.Headers)
		}

		if !result.Allowed {
			config.OnLimitReached(c, result)
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *LimitResult, headers *HeaderConfig) {
	if headers.RemainingHeader != "" {
		c.Header(headers.RemainingHeader, strconv.FormatInt(result.Remaining, 10))
	}
	if headers.RetryAfterHeader != "" && result.RetryAfter > 0 {
		secs := int64((result.RetryAfter + time.Second - 1) / time.Second)
		c.Header(headers.RetryAfterHeader, strconv.FormatInt(secs, 10))
	}
}

// failOpen 限流器不可用时放行请求，只记录日志
func failOpen(logger *zap.Logger) func(*gin.Context, error) {
	return func(c *gin.Context, err error) {
		logger.Warn("rate limiter unavailable, allowing request",
			zap.String("request_id", middleware.RequestIDFromContext(c.Request.Context())),
			zap.Error(err),
		)
		c.Next()
	}
}

func defaultOnLimitReached(c *gin.Context, result *LimitResult) {
	reqID := middleware.RequestIDFromContext(c.Request.Context())
	resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
		"Too many requests, please try again later", reqID, "")
	c.Abort()
}

// LoginRateLimitMiddleware 后台登录限流：按客户端 IP 计数
func LoginRateLimitMiddleware(l Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return RateLimitMiddleware(&MiddlewareConfig{
		Limiter: l,
		KeyGenerator: func(c *gin.Context) string {
			return fmt.Sprintf("login:ip:%s", c.ClientIP())
		},
		OnLimitReached: func(c *gin.Context, result *LimitResult) {
			reqID := middleware.RequestIDFromContext(c.Request.Context())
			logger.Warn("admin login rate limited",
				zap.String("request_id", reqID),
				zap.String("client_ip", c.ClientIP()),
			)
			resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
				"Too many login attempts, please try again later", reqID, "")
			c.Abort()
		},
		Logger: logger,
	})
}
