package ingredient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/pkg/common"
)

const (
	msgReceiptNoText    = "영수증에서 텍스트를 추출할 수 없습니다. 더 명확한 이미지로 다시 시도해주세요."
	msgReceiptCall      = "영수증 텍스트 분석 중 오류가 발생했습니다."
	msgReceiptNoContent = "영수증 텍스트 분석에서 응답을 받지 못했습니다."

	// warnReceipt 收據來源警告會覆蓋低信心警告
	warnReceipt = "영수증에서 추출된 정보입니다. 실제 구매한 식재료와 다를 수 있습니다."
)

// analyzeReceipt 以收據文字再呼叫一次模型，結果以 receipt-text 模式正規化
func (a *Analyzer) analyzeReceipt(ctx context.Context, text string) (*common.ObservationBatch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewError(common.ErrCodeEmptyResult, msgReceiptNoText, http.StatusBadRequest,
			common.ErrEmptyResult)
	}

	raw, err := a.client.Complete(ctx, &provider.Request{
		Kind:      "receipt",
		Model:     a.cfg.TextModel,
		Prompt:    buildReceiptPrompt(text),
		MaxTokens: a.cfg.ReceiptTokens,
		Timeout:   a.cfg.TextTimeout,
		RequestID: common.RequestIDFrom(ctx),
	})
	if err != nil {
		return nil, receiptCallError(err)
	}

	batch, err := extractAndNormalize(ModeReceipt, raw)
	if err != nil {
		return resolveError(ctx, ModeReceipt, err)
	}
	batch.Warning = warnReceipt
	logBatch(ctx, ModeReceipt, batch)
	return batch, nil
}

func receiptCallError(err error) error {
	switch {
	case errors.Is(err, common.ErrUpstreamAuth):
		return err
	case common.CodeOf(err) == common.ErrCodeModelEmpty:
		return common.NewError(common.ErrCodeModelEmpty, msgReceiptNoContent, http.StatusInternalServerError, err)
	default:
		return common.NewError(common.ErrCodeModelError, msgReceiptCall, http.StatusInternalServerError, err)
	}
}
