package middleware

import (
	"net/http"
	"strings"
	"time"

	"smart-fridge/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestContext 將 requestid 產生的 ID 放入 request context，供服務層記錄
// 必須註冊在 requestid.New() 之後
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.Get(c)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Logger 請求日誌；健康檢查只記在 debug 層級
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("elapsed", time.Since(began)),
			zap.String("client_ip", c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.Strings("errors", errs.Errors()))
		}

		logRequest(route, status)(common.MsgRequestDone, fields...)
	}
}

func logRequest(route string, status int) func(string, ...zap.Field) {
	switch {
	case status >= http.StatusInternalServerError:
		return common.LogError
	case status >= http.StatusBadRequest:
		return common.LogWarn
	case strings.HasSuffix(route, "/health") || strings.HasSuffix(route, "/live") || strings.HasSuffix(route, "/ready"):
		return common.LogDebug
	default:
		return common.LogInfo
	}
}

// Recovery 攔截 panic 並回傳 500 JSON
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				common.LogError("處理請求時發生 panic",
					zap.Any("panic", r),
					zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
					zap.String("route", c.FullPath()),
					zap.Stack("stack"),
				)
				abortJSON(c, http.StatusInternalServerError, "서버 내부 오류가 발생했습니다.")
			}
		}()

		c.Next()
	}
}
