package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgRequestTimeout = "요청 처리 시간이 초과되었습니다. 다시 시도해주세요."

// Timeout 為每個請求設定截止時間；處理器尚未回應時回傳 504
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestIDFrom(ctx)),
				zap.Duration("timeout", d),
			)
			abortJSON(c, http.StatusGatewayTimeout, msgRequestTimeout)
		}
	}
}
