package common

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code       string    // 錯誤代碼
	Message    string    // 錯誤信息
	Err        error     // 原始錯誤
	Status     int       // HTTP 狀態碼
	RetryAfter time.Time // 限流時可重試的時間點，零值代表無法推得
	Timeout    bool      // 是否為逾時
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		if e.Message != "" {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 輸入與抓取
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeSanitizerFailed = "SANITIZER_FAILED"

	// 推論服務
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeSchemaViolation    = "SCHEMA_VIOLATION"
	ErrCodeAINotConfigured    = "AI_NOT_CONFIGURED"

	// 業務結果
	ErrCodeNoRecipeFound = "NO_RECIPE_FOUND"

	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// 預定義錯誤
var (
	ErrCacheFull     = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheMiss     = NewError("CACHE_MISS", "快取未命中", http.StatusNotFound, nil)
)

// NewInvalidInputError 無效輸入
func NewInvalidInputError(message string, err error) *CustomError {
	return NewError(ErrCodeInvalidInput, message, http.StatusBadRequest, err)
}

// NewFetchError 抓取失敗，status 為上游狀態碼（網路錯誤則為 0）
func NewFetchError(message string, status int, timeout bool, err error) *CustomError {
	e := NewError(ErrCodeFetchFailed, message, http.StatusBadGateway, err)
	e.Timeout = timeout
	if timeout {
		e.Status = http.StatusGatewayTimeout
	}
	if status != 0 {
		e.Message = fmt.Sprintf("%s (upstream status %d)", message, status)
	}
	return e
}

// NewSanitizerError 清理器回報失敗
func NewSanitizerError(message string) *CustomError {
	return NewError(ErrCodeSanitizerFailed, message, http.StatusUnprocessableEntity, nil)
}

// NewRateLimitedError 推論服務限流
func NewRateLimitedError(retryAfter time.Time, err error) *CustomError {
	e := NewError(ErrCodeRateLimited, "AI service rate limited", http.StatusTooManyRequests, err)
	e.RetryAfter = retryAfter
	return e
}

// NewServiceUnavailableError 推論服務暫時不可用
func NewServiceUnavailableError(err error) *CustomError {
	return NewError(ErrCodeServiceUnavailable, "AI service temporarily unavailable", http.StatusServiceUnavailable, err)
}

// NewSchemaViolationError AI 回應不符合結構
func NewSchemaViolationError(message string, err error) *CustomError {
	return NewError(ErrCodeSchemaViolation, message, http.StatusBadGateway, err)
}

// NewNoRecipeError 找不到食譜
func NewNoRecipeError(message string) *CustomError {
	return NewError(ErrCodeNoRecipeFound, message, http.StatusUnprocessableEntity, nil)
}

// NewNotConfiguredError 未設定 AI 金鑰
func NewNotConfiguredError() *CustomError {
	return NewError(ErrCodeAINotConfigured, "AI extraction is not configured", http.StatusServiceUnavailable, nil)
}

// AsCustomError 取出錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ErrorCode 取得錯誤代碼，未知錯誤一律視為內部錯誤
func ErrorCode(err error) string {
	if ce, ok := AsCustomError(err); ok {
		return ce.Code
	}
	return ErrCodeInternalError
}

// StatusFor 錯誤代碼對應的 HTTP 狀態碼
func StatusFor(code string, timeout bool) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeFetchFailed:
		if timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case ErrCodeSanitizerFailed, ErrCodeNoRecipeFound:
		return http.StatusUnprocessableEntity
	case ErrCodeSchemaViolation:
		return http.StatusBadGateway
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable, ErrCodeAINotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
