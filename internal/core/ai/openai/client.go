package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	msgNotConfigured = "OpenAI API 키가 설정되지 않았습니다. 관리자에게 문의하세요."
	msgInvalidKey    = "OpenAI API 키가 유효하지 않습니다. API 키를 확인해주세요."
	msgBadImageType  = "이미지 형식이 올바르지 않습니다. PNG, JPEG, GIF, WebP 형식의 이미지를 업로드해주세요."
	msgBadImage      = "이미지를 처리할 수 없습니다. 다른 이미지를 시도해주세요."
	msgNoContent     = "AI에서 응답을 받지 못했습니다. 다시 시도해주세요."
	msgTimeout       = "AI 응답 시간이 초과되었습니다. 다시 시도해주세요."
	msgUnreachable   = "AI 서비스에 연결할 수 없습니다. 잠시 후 다시 시도해주세요."
)

// Client OpenAI 相容 chat/completions 客戶端
type Client struct {
	client *resty.Client
	apiKey string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role string `json:"role"`
	// 純文字時為 string，附圖時為 []contentPart
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的模型客戶端
func NewClient(cfg config.ModelConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{client: client, apiKey: cfg.APIKey}
}

// Complete 送出一次補全請求並回傳文字內容
func (c *Client) Complete(ctx context.Context, req *provider.Request) (string, error) {
	if c.apiKey == "" {
		return "", common.NewError(common.ErrCodeModelConfig, msgNotConfigured, http.StatusInternalServerError, common.ErrUpstreamAuth)
	}

	callCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := c.do(callCtx, req)
	common.LogAICall(req.Model, time.Since(start), err, req.RequestID)
	return content, err
}

func (c *Client) do(ctx context.Context, req *provider.Request) (string, error) {
	body := chatRequest{
		Model:     req.Model,
		Messages:  []chatMessage{buildMessage(req)},
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	common.LogDebug("送出模型請求",
		zap.String("kind", req.Kind),
		zap.String("model", req.Model),
		zap.Bool("has_image", req.HasImage()),
		zap.Int("prompt_length", len(req.Prompt)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", common.NewError(common.ErrCodeModelTimeout, msgTimeout, http.StatusInternalServerError,
				fmt.Errorf("%w: %s call timed out: %w", common.ErrTransport, req.Kind, err))
		}
		return "", common.NewError(common.ErrCodeModelError, msgUnreachable, http.StatusInternalServerError,
			fmt.Errorf("%w: %s call failed: %w", common.ErrTransport, req.Kind, err))
	}

	if resp.StatusCode() != http.StatusOK {
		return "", mapStatusError(req, resp.StatusCode(), resp.Body())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", common.NewError(common.ErrCodeModelError, msgNoContent, http.StatusInternalServerError,
			fmt.Errorf("%w: decode completion: %w", common.ErrTransport, err))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		common.LogWarn("模型回應為空", zap.String("kind", req.Kind), zap.String("response", sanitizeResponse(resp.Body())))
		return "", common.NewError(common.ErrCodeModelEmpty, msgNoContent, http.StatusInternalServerError,
			fmt.Errorf("%w: empty completion", common.ErrTransport))
	}

	return parsed.Choices[0].Message.Content, nil
}

func buildMessage(req *provider.Request) chatMessage {
	if !req.HasImage() {
		return chatMessage{Role: "user", Content: req.Prompt}
	}
	return chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL}},
		},
	}
}

func mapStatusError(req *provider.Request, status int, body []byte) error {
	common.LogError("模型服務回傳錯誤狀態",
		zap.String("kind", req.Kind),
		zap.Int("status_code", status),
		zap.String("response", sanitizeResponse(body)),
	)

	cause := fmt.Errorf("%w: %s call returned status %d", common.ErrTransport, req.Kind, status)

	switch {
	case status == http.StatusUnauthorized:
		return common.NewError(common.ErrCodeUpstreamAuth, msgInvalidKey, http.StatusUnauthorized,
			fmt.Errorf("%w: status %d", common.ErrUpstreamAuth, status))
	case status == http.StatusBadRequest && req.HasImage():
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && fmt.Sprint(apiErr.Error.Code) == "invalid_image_format" {
			return common.NewError(common.ErrCodeInvalidImage, msgBadImageType, http.StatusBadRequest, cause)
		}
		return common.NewError(common.ErrCodeInvalidImage, msgBadImage, http.StatusBadRequest, cause)
	default:
		msg := fmt.Sprintf("OpenAI API 오류 (%d): %s", status, http.StatusText(status))
		return common.NewError(common.ErrCodeModelError, msg, http.StatusInternalServerError, cause)
	}
}

// sanitizeResponse 移除回應中的圖片資料後再寫入日誌
func sanitizeResponse(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") {
		return "[IMAGE_DATA_REMOVED]"
	}
	if len(s) > 100 && strings.Contains(s, "base64") {
		return "[BASE64_DATA_REMOVED]"
	}
	const maxLen = 500
	if len(s) > maxLen {
		return s[:maxLen] + "...(truncated)"
	}
	return s
}
