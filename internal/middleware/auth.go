package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/resp"
	"github.com/MorseWayne/players_club/internal/service"
)

// ContextKeyAdmin gin 上下文中保存管理员用户名的键
const ContextKeyAdmin = "admin"

// AdminAuth 后台鉴权：校验 Authorization: Bearer <token>，
// 通过后把管理员用户名写入 gin 上下文与请求上下文
func AdminAuth(jwtService service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		reqID := RequestIDFromContext(c.Request.Context())

		// 从Authorization头中提取令牌
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("missing authorization header", zap.String("request_id", reqID))
			abortUnauthorized(c, "Authorization header required", reqID)
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			logger.Warn("invalid authorization header format", zap.String("request_id", reqID))
			abortUnauthorized(c, "Invalid authorization header format", reqID)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, "Token required", reqID)
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			logger.Warn("token validation failed",
				zap.String("request_id", reqID),
				zap.Error(err),
			)
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				abortUnauthorized(c, "Token expired", reqID)
			case errors.Is(err, service.ErrTokenNotReady):
				abortUnauthorized(c, "Token not ready", reqID)
			default:
				abortUnauthorized(c, "Invalid token", reqID)
			}
			return
		}

		c.Set(ContextKeyAdmin, claims.Username)
		c.Request = c.Request.WithContext(withAdmin(c.Request.Context(), claims.Username))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message, reqID string) {
	resp.Error(c.Writer, http.StatusUnauthorized, resp.CodeUnauthorized, message, reqID, "")
	c.Abort()
}
