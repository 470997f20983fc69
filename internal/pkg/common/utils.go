package common

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// Now 目前時間（UTC，毫秒精度）
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// WithRequestID 將請求 ID 放入 context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 取出請求 ID，沒有時為空字串
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
