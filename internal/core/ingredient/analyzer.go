package ingredient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/core/image"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	msgImageRequired  = "Image data is required"
	msgTextRequired   = "Text is required"
	msgLookupRequired = "Name and quantity are required"
	msgInvalidImage   = "올바르지 않은 이미지 데이터 형식입니다."
	msgNoJSON         = "AI 응답에서 유효한 JSON을 찾을 수 없습니다. 다시 시도해주세요."
	msgTruncated      = "AI 응답이 완전하지 않습니다. 다시 시도해주세요."
	msgInvalidToken   = "AI 응답에 잘못된 문자('%s')가 포함되어 있습니다. 다시 시도해주세요."
)

// modeMessages 各模式對應的使用者訊息
type modeMessages struct {
	empty        string
	emptyStatus  int
	unrecognized string
	// parse 非空時，任何解析錯誤都直接回傳此訊息而不使用預設結果
	parse string
}

var messages = map[Mode]modeMessages{
	ModeVision: {
		empty:        "AI 응답에서 식재료 정보를 찾을 수 없습니다. 다시 시도해주세요.",
		emptyStatus:  http.StatusInternalServerError,
		unrecognized: "이미지에서 음식이나 식재료를 인식할 수 없습니다. 음식이나 식재료가 명확하게 보이는 사진을 업로드해주세요.",
	},
	ModeReceipt: {
		empty:        "영수증에서 식재료를 찾을 수 없습니다. 식재료가 포함된 영수증인지 확인해주세요.",
		emptyStatus:  http.StatusBadRequest,
		unrecognized: "영수증에서 식재료를 인식할 수 없습니다. 다른 영수증을 시도하거나 직접 텍스트로 입력해주세요.",
	},
	ModeText: {
		empty:        "텍스트에서 식재료를 찾을 수 없습니다. 더 구체적으로 식재료 이름과 개수를 입력해주세요.",
		emptyStatus:  http.StatusBadRequest,
		unrecognized: "텍스트에서 식재료를 찾을 수 없습니다. 더 구체적으로 식재료 이름과 개수를 입력해주세요.",
		parse:        "AI 응답 처리 중 오류가 발생했습니다. 다시 시도해주세요.",
	},
}

// LookupResult 單品查詢結果
type LookupResult struct {
	Ingredient common.IngredientObservation
	Warning    string
}

// Analyzer 食材辨識服務
type Analyzer struct {
	client provider.ModelClient
	cfg    config.ModelConfig
}

// NewAnalyzer 創建食材辨識服務
func NewAnalyzer(client provider.ModelClient, cfg config.ModelConfig) *Analyzer {
	return &Analyzer{client: client, cfg: cfg}
}

// AnalyzeImage 辨識照片中的食材；收據會轉交第二次文字分析
func (a *Analyzer) AnalyzeImage(ctx context.Context, imageData string) (*common.ObservationBatch, error) {
	if strings.TrimSpace(imageData) == "" {
		return nil, common.NewValidationError(msgImageRequired)
	}
	if !image.HasDataURIPrefix(imageData) {
		common.LogWarn("圖片資料格式錯誤", zap.Int("length", len(imageData)))
		return nil, common.NewError(common.ErrCodeInvalidImage, msgInvalidImage, http.StatusBadRequest, nil)
	}

	raw, err := a.client.Complete(ctx, &provider.Request{
		Kind:      "vision",
		Model:     a.cfg.VisionModel,
		Prompt:    visionPrompt,
		ImageURL:  imageData,
		MaxTokens: a.cfg.VisionTokens,
		Timeout:   a.cfg.VisionTimeout,
		RequestID: common.RequestIDFrom(ctx),
	})
	if err != nil {
		return nil, err
	}

	jsonText, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, noJSONError(ModeVision, raw, err)
	}

	env, err := parseEnvelope(jsonText)
	if err != nil {
		return resolveError(ctx, ModeVision, err)
	}
	if env.isReceipt() {
		common.LogInfo("偵測到收據，轉為文字分析", zap.Int("text_length", len(string(env.Text))))
		return a.analyzeReceipt(ctx, string(env.Text))
	}

	batch, err := normalizeEnvelope(env, ModeVision)
	if err != nil {
		return resolveError(ctx, ModeVision, err)
	}
	logBatch(ctx, ModeVision, batch)
	return batch, nil
}

// AnalyzeText 從自由文字中辨識食材
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*common.ObservationBatch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewValidationError(msgTextRequired)
	}

	raw, err := a.client.Complete(ctx, &provider.Request{
		Kind:      "text",
		Model:     a.cfg.TextModel,
		Prompt:    buildTextPrompt(text),
		MaxTokens: a.cfg.TextTokens,
		Timeout:   a.cfg.TextTimeout,
		RequestID: common.RequestIDFrom(ctx),
	})
	if err != nil {
		return nil, err
	}

	batch, err := extractAndNormalize(ModeText, raw)
	if err != nil {
		return resolveError(ctx, ModeText, err)
	}
	logBatch(ctx, ModeText, batch)
	return batch, nil
}

// LookupIngredient 依名稱與數量產生單一食材資訊；解析失敗時回傳預設資訊與警告
func (a *Analyzer) LookupIngredient(ctx context.Context, name string, quantity int) (*LookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || quantity <= 0 {
		return nil, common.NewValidationError(msgLookupRequired)
	}

	raw, err := a.client.Complete(ctx, &provider.Request{
		Kind:      "lookup",
		Model:     a.cfg.TextModel,
		Prompt:    buildLookupPrompt(name, quantity),
		MaxTokens: a.cfg.LookupTokens,
		Timeout:   a.cfg.TextTimeout,
		RequestID: common.RequestIDFrom(ctx),
	})
	if err != nil {
		return nil, err
	}

	jsonText, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, noJSONError(ModeLookup, raw, err)
	}

	var item rawItem
	if err := common.ParseJSON(jsonText, &item); err != nil {
		common.LogWarn("食材資訊解析失敗，使用預設資訊",
			zap.String("name", name),
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return &LookupResult{Ingredient: FallbackLookup(name, quantity), Warning: warnFallback}, nil
	}

	if strings.TrimSpace(string(item.Name)) == "" {
		item.Name = common.FlexString(name)
	}
	if item.Quantity <= 0 {
		item.Quantity = common.FlexInt(quantity)
	}
	obs := normalizeItem(item, ModeLookup)
	common.LogInfo("食材資訊產生完成", zap.String("name", obs.Name), zap.String("request_id", common.RequestIDFrom(ctx)))
	return &LookupResult{Ingredient: obs}, nil
}

// extractAndNormalize 抽出 JSON 後交給 Normalize
func extractAndNormalize(mode Mode, raw string) (*common.ObservationBatch, error) {
	jsonText, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(jsonText, mode)
}

func noJSONError(mode Mode, raw string, err error) error {
	common.LogError("模型回應中找不到 JSON",
		zap.String("mode", string(mode)),
		zap.Int("response_length", len(raw)),
	)
	return common.NewError(common.ErrCodeNoJSON, msgNoJSON, http.StatusInternalServerError, err)
}

// resolveError 將辨識流程的錯誤轉為使用者訊息；無法分類的解析錯誤回傳預設結果
func resolveError(ctx context.Context, mode Mode, err error) (*common.ObservationBatch, error) {
	msgs := messages[mode]
	requestID := common.RequestIDFrom(ctx)

	switch {
	case errors.Is(err, common.ErrNoJSONFound):
		return nil, noJSONError(mode, "", err)
	case errors.Is(err, common.ErrEmptyResult):
		return nil, common.NewError(common.ErrCodeEmptyResult, msgs.empty, msgs.emptyStatus, err)
	case errors.Is(err, common.ErrUnrecognized):
		return nil, common.NewError(common.ErrCodeUnrecognized, msgs.unrecognized, http.StatusBadRequest, err)
	case errors.Is(err, common.ErrMalformedJSON):
		common.LogError("模型回應 JSON 解析失敗",
			zap.String("mode", string(mode)),
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		if msgs.parse != "" {
			return nil, common.NewError(common.ErrCodeMalformedJSON, msgs.parse, http.StatusInternalServerError, err)
		}
		if token, ok := common.InvalidJSONToken(err); ok {
			return nil, common.NewError(common.ErrCodeMalformedJSON, fmt.Sprintf(msgInvalidToken, token), http.StatusInternalServerError, err)
		}
		if common.IsTruncatedJSON(err) {
			return nil, common.NewError(common.ErrCodeMalformedJSON, msgTruncated, http.StatusInternalServerError, err)
		}
		common.LogWarn("使用預設辨識結果", zap.String("mode", string(mode)), zap.String("request_id", requestID))
		return FallbackBatch(), nil
	default:
		return nil, err
	}
}

func logBatch(ctx context.Context, mode Mode, batch *common.ObservationBatch) {
	common.LogInfo("食材辨識完成",
		zap.String("mode", string(mode)),
		zap.Int("ingredients", len(batch.Ingredients)),
		zap.Int("total_count", batch.TotalCount),
		zap.Bool("has_warning", batch.Warning != ""),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)
}
