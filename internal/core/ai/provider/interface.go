package provider

import (
	"context"
	"time"
)

// Request 一次文字補全請求
type Request struct {
	// Kind 呼叫類型，用於日誌與錯誤訊息（vision / receipt / text / lookup / recommend / detail）
	Kind        string
	Model       string
	Prompt      string
	ImageURL    string // data URI，空字串表示純文字
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	RequestID   string
}

// HasImage 是否附帶圖片
func (r *Request) HasImage() bool {
	return r.ImageURL != ""
}

// ModelClient 呼叫外部模型並回傳原始文字
type ModelClient interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// ModelClientFunc 讓函式滿足 ModelClient
type ModelClientFunc func(ctx context.Context, req *Request) (string, error)

func (f ModelClientFunc) Complete(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}
