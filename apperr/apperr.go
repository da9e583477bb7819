package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 稳定的业务错误码，随响应返回给前端
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "RESOURCE_NOT_FOUND"
	CodeAlreadyExists   Code = "RESOURCE_ALREADY_EXISTS"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeAIRateLimit     Code = "AI_RATE_LIMIT"
	CodeAIService       Code = "AI_SERVICE_ERROR"
	CodeExternalService Code = "EXTERNAL_SERVICE_ERROR"
	CodeDatabase        Code = "DATABASE_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error 携带错误码、HTTP 状态和细节的结构化错误。
// Operational=false 表示非预期错误，生产模式下对外隐藏 message/details。
type Error struct {
	Code        Code
	Message     string
	Status      int
	Operational bool
	Details     interface{}
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetails(d interface{}) *Error {
	e.Details = d
	return e
}

func New(code Code, status int, message string) *Error {
	return &Error{Code: code, Message: message, Status: status, Operational: true}
}

func Validation(message string) *Error {
	return New(CodeValidation, http.StatusBadRequest, message)
}

func NotFound(resource, id string) *Error {
	msg := resource + " not found"
	if id != "" {
		msg = fmt.Sprintf("%s with id '%s' not found", resource, id)
	}
	return New(CodeNotFound, http.StatusNotFound, msg)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return New(CodeForbidden, http.StatusForbidden, message)
}

func Conflict(message string) *Error {
	return New(CodeAlreadyExists, http.StatusConflict, message)
}

func AIService(message string, err error) *Error {
	e := New(CodeAIService, http.StatusServiceUnavailable, message)
	e.Err = err
	return e
}

func ExternalService(message string, err error) *Error {
	e := New(CodeExternalService, http.StatusServiceUnavailable, message)
	e.Err = err
	return e
}

// Database 数据库异常，按非预期错误处理
func Database(message string, err error) *Error {
	return &Error{
		Code:        CodeDatabase,
		Message:     message,
		Status:      http.StatusInternalServerError,
		Operational: false,
		Err:         err,
	}
}

// Internal 兜底错误
func Internal(err error) *Error {
	return &Error{
		Code:        CodeInternal,
		Message:     "An unexpected error occurred",
		Status:      http.StatusInternalServerError,
		Operational: false,
		Err:         err,
	}
}

// From 提取错误链中的 *Error，不存在则包装为 Internal
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsCode 判断错误链中是否携带指定错误码
func IsCode(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
