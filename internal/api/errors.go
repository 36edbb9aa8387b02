// Package api 提供店铺的 HTTP API 处理器（gin）。
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/domain"
	"github.com/MorseWayne/players_club/internal/middleware"
	"github.com/MorseWayne/players_club/internal/resp"
)

const (
	// HeaderCartSession 购物车会话键
	HeaderCartSession = "X-Cart-Session"
	// HeaderDeviceID 本地统计账本的设备键
	HeaderDeviceID = "X-Device-ID"
)

// validationData 校验失败时附带的字段错误列表
type validationData struct {
	Errors []domain.FieldError `json:"errors"`
}

// requestID 获取请求ID
func requestID(c *gin.Context) string {
	return middleware.RequestIDFromContext(c.Request.Context())
}

// respCode 领域错误码到业务码的映射
func respCode(code string) int {
	switch code {
	case domain.EINVALID:
		return resp.CodeInvalidParam
	case domain.EVALIDATION:
		return resp.CodeValidationFailed
	case domain.EUNAUTHORIZED:
		return resp.CodeUnauthorized
	case domain.ENOTFOUND:
		return resp.CodeNotFound
	case domain.ECONFLICT:
		return resp.CodeConflict
	case domain.ERATELIMIT:
		return resp.CodeTooManyRequests
	case domain.EUNAVAILABLE:
		return resp.CodeUnavailable
	default:
		return resp.CodeInternalError
	}
}

// writeError 按领域错误码写出响应；5xx 以 error 级别记录，其余为 warn
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	reqID := requestID(c)
	code := respCode(domain.ErrorCode(err))
	status := resp.HTTPStatusFromCode(code)

	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("op", op),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	if code == resp.CodeValidationFailed {
		resp.WriteJSON(c.Writer, status, code, domain.ErrorMessage(err),
			validationData{Errors: domain.ErrorFields(err)}, reqID, "")
		return
	}
	resp.Error(c.Writer, status, code, domain.ErrorMessage(err), reqID, "")
}

// badRequest 请求体无法解析
func badRequest(c *gin.Context, logger *zap.Logger, message string, err error) {
	reqID := requestID(c)
	logger.Warn("invalid request", zap.String("request_id", reqID), zap.Error(err))
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, message, reqID, "")
}

// requireHeader 读取必填请求头，缺失时写出 400
func requireHeader(c *gin.Context, name string) (string, bool) {
	v := c.GetHeader(name)
	if v == "" {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, name+" header is required", requestID(c), "")
		return "", false
	}
	return v, true
}
