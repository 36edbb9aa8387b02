package domain

import (
	"errors"
	"fmt"
)

// 应用错误码，处理器层据此映射 HTTP 状态码
const (
	EINVALID      = "invalid_argument"  // 400 非法参数：错误的 ID、未知分类
	EVALIDATION   = "validation_failed" // 400 商品结构校验失败，携带字段错误列表
	ECONFLICT     = "conflict"          // 409 slug 冲突
	ENOTFOUND     = "not_found"         // 404 记录不存在
	EUNAVAILABLE  = "unavailable"       // 503 存储不可用或超时，可重试
	EUNAUTHORIZED = "unauthorized"      // 401 后台凭证错误
	ERATELIMIT    = "rate_limit"        // 429 请求过于频繁
	EINTERNAL     = "internal"          // 500 其它内部错误
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 带错误码的应用错误，支持 errors.Is / errors.As 解包
type Error struct {
	Code    string
	Message string
	// Op 发生错误的操作，仅用于日志
	Op     string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode 提取错误码，非应用错误一律视为 EINTERNAL
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage 提取可展示给用户的错误信息，内部错误不暴露细节
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorFields 提取字段级校验错误
func ErrorFields(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// IsCode 判断错误是否为指定错误码
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Errorf 创建带格式化信息的应用错误
func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError 使用错误码包装底层错误，err 为 nil 时返回 nil
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// NewValidationError 以字段错误列表构造 EVALIDATION 错误
func NewValidationError(op string, fields []FieldError) error {
	msg := "Product validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &Error{Code: EVALIDATION, Op: op, Message: msg, Fields: fields}
}
