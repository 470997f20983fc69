package common

import (
	"errors"
	"net/http"
)

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 對使用者顯示的錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 可以看到原始錯誤
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

// NewValidationError 創建 400 驗證錯誤
func NewValidationError(message string) *CustomError {
	return NewError(ErrCodeInvalidRequest, message, http.StatusBadRequest, nil)
}

// NewNotFoundError 創建 404 錯誤
func NewNotFoundError(message string) *CustomError {
	return NewError(ErrCodeNotFound, message, http.StatusNotFound, ErrNotFound)
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Code == ErrCodeInvalidRequest
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼
func StatusOf(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// CodeOf 取得錯誤代碼，非 CustomError 時為空字串
func CodeOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// MessageOf 取得可回傳給使用者的錯誤信息
func MessageOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return "서버 내부 오류가 발생했습니다."
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	ErrCodeInternalError  = "INTERNAL_ERROR"  // 500
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT" // 504

	ErrCodeUpstreamAuth   = "UPSTREAM_AUTH"
	ErrCodeModelError     = "MODEL_ERROR"
	ErrCodeModelTimeout   = "MODEL_TIMEOUT"
	ErrCodeModelEmpty     = "MODEL_EMPTY_CONTENT"
	ErrCodeModelConfig    = "MODEL_NOT_CONFIGURED"
	ErrCodeNoJSON         = "NO_JSON_FOUND"
	ErrCodeMalformedJSON  = "MALFORMED_JSON"
	ErrCodeEmptyResult    = "EMPTY_RESULT"
	ErrCodeUnrecognized   = "UNRECOGNIZED"
	ErrCodeReconciliation = "RECONCILIATION_FAILED"
	ErrCodeStore          = "STORE_ERROR"
	ErrCodeInvalidImage   = "INVALID_IMAGE"
)

// 錯誤分類，搭配 errors.Is 使用
var (
	// ErrTransport 模型或儲存層的網路/HTTP 失敗，包含逾時
	ErrTransport = errors.New("transport error")
	// ErrUpstreamAuth 模型服務拒絕憑證
	ErrUpstreamAuth = errors.New("upstream credential rejected")
	// ErrNoJSONFound 模型回應中找不到 JSON 物件
	ErrNoJSONFound = errors.New("no json object found")
	// ErrMalformedJSON JSON 解析失敗
	ErrMalformedJSON = errors.New("malformed json")
	// ErrEmptyResult 模型沒有回傳可用的項目
	ErrEmptyResult = errors.New("empty result")
	// ErrUnrecognized 所有項目都是無法辨識的標記
	ErrUnrecognized = errors.New("unrecognized input")
	// ErrReconciliation 冰箱合併時寫入失敗
	ErrReconciliation = errors.New("reconciliation failed")
	// ErrNotFound 資源不存在
	ErrNotFound = errors.New("not found")
)
