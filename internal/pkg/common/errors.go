package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrNoCandidates) 可用於包裝後的錯誤
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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

// Wrap 以預定義錯誤為範本附加底層錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeValidation      = "VALIDATION_ERROR"  // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeNoCandidates    = "NO_CANDIDATES"     // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"          // 500
	ErrCodeUpstreamResponse   = "UPSTREAM_RESPONSE_ERROR" // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"     // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"         // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Matching service unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Request timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoCandidates     = NewError(ErrCodeNoCandidates, "No matching products found during pre-filtering", http.StatusNotFound, nil)
	ErrUpstreamResponse = NewError(ErrCodeUpstreamResponse, "Matching model returned an unusable response", http.StatusBadGateway, nil)
)

// NewNoCandidatesError 預篩選後沒有任何候選商品
func NewNoCandidatesError(ingredient string) *CustomError {
	return NewError(ErrCodeNoCandidates,
		"No matching products found during pre-filtering. Please refine the ingredient name or update product data.",
		http.StatusNotFound,
		errors.New("no candidates for "+ingredient))
}

// NewServiceUnavailableError 生成模型未設定或無法連線
func NewServiceUnavailableError(message string, err error) *CustomError {
	return NewError(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable, err)
}

// NewUpstreamResponseError 生成模型回應無法使用
func NewUpstreamResponseError(message string, err error) *CustomError {
	return NewError(ErrCodeUpstreamResponse, message, http.StatusBadGateway, err)
}

// HTTPStatusOf 將錯誤轉換為 HTTP 狀態碼與錯誤代碼
func HTTPStatusOf(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if IsValidationError(err) {
		return http.StatusBadRequest, ErrCodeValidation
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status, ce.Code
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// NewErrorResponse 以錯誤建立 API 錯誤響應
func NewErrorResponse(err error) (int, ErrorResponse) {
	status, code := HTTPStatusOf(err)
	resp := ErrorResponse{Code: code}

	var ce *CustomError
	switch {
	case IsValidationError(err):
		resp.Error = err.Error()
	case errors.As(err, &ce):
		resp.Error = ce.Message
		if ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
	default:
		resp.Error = "Request failed"
		resp.Details = err.Error()
	}
	return status, resp
}
