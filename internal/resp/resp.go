// Package resp 定义统一的 HTTP JSON 响应结构与业务错误码。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码，0 表示成功
const (
	CodeOK               = 0
	CodeInvalidParam     = 10001
	CodeUnauthorized     = 10002
	CodeNotFound         = 10004
	CodeConflict         = 10009
	CodeValidationFailed = 10022
	CodeTooManyRequests  = 10029
	CodeInternalError    = 50000
	CodeUnavailable      = 50003
	CodeTimeout          = 50004
)

// Response 统一响应体
type Response[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteJSON 写出统一格式的 JSON 响应
func WriteJSON(w http.ResponseWriter, status, code int, message string, data any, requestID, traceID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response[any]{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// OK 写出成功响应
func OK(w http.ResponseWriter, data any, requestID, traceID string) {
	WriteJSON(w, http.StatusOK, CodeOK, "success", data, requestID, traceID)
}

// Created 写出资源创建成功响应
func Created(w http.ResponseWriter, data any, requestID, traceID string) {
	WriteJSON(w, http.StatusCreated, CodeOK, "created", data, requestID, traceID)
}

// Error 写出错误响应（不携带数据）
func Error(w http.ResponseWriter, status, code int, message, requestID, traceID string) {
	WriteJSON(w, status, code, message, nil, requestID, traceID)
}

// HTTPStatusFromCode 将业务错误码映射为 HTTP 状态码
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
