package handlers

import (
	"errors"
	"net/http"

	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidBody = "Invalid request format"

// RespondError 將錯誤轉為 {success:false, error} 並附上對應的狀態碼
func RespondError(c *gin.Context, err error) {
	status := common.StatusOf(err)
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", common.CodeOf(err)),
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   common.MessageOf(err),
	})
}

// RespondOK 回傳 {success:true, ...}
func RespondOK(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

// BindJSON 解析請求體；解析錯誤若已是 CustomError 則保留其訊息
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var ce *common.CustomError
		if errors.As(err, &ce) {
			RespondError(c, ce)
			return false
		}
		RespondError(c, common.NewError(common.ErrCodeInvalidRequest, msgInvalidBody, http.StatusBadRequest, err))
		return false
	}
	return true
}

// WithWarning 在 warning 非空時加入回應
func WithWarning(body gin.H, warning string) gin.H {
	if warning != "" {
		body["warning"] = warning
	}
	return body
}
