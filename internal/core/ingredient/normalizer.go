package ingredient

import (
	"encoding/json"
	"fmt"
	"strings"

	"smart-fridge/internal/pkg/common"
)

// Mode 辨識來源，決定預設信心值與無法辨識的標記
type Mode string

const (
	ModeVision  Mode = "vision"
	ModeReceipt Mode = "receipt-text"
	ModeText    Mode = "free-text"
	ModeLookup  Mode = "single-lookup"
)

const (
	unknownImageLabel = "알 수 없음"
	unknownTextLabel  = "인식 불가"

	// LowConfidenceThreshold 低於此信心值時整批加上警告
	LowConfidenceThreshold = 70

	warnLowConfidence = "일부 식재료의 AI 인식 신뢰도가 낮습니다. 결과를 참고용으로만 사용하세요."
	noVitaminInfo     = "정보 없음"
)

// DefaultConfidence 模型沒有給信心值時使用
func (m Mode) DefaultConfidence() int {
	switch m {
	case ModeText, ModeLookup:
		return 90
	default:
		return 70
	}
}

// UnknownLabel 模型用來表示無法辨識的名稱；單品查詢沒有此標記
func (m Mode) UnknownLabel() string {
	switch m {
	case ModeVision:
		return unknownImageLabel
	case ModeReceipt, ModeText:
		return unknownTextLabel
	default:
		return ""
	}
}

// envelope 模型回應的外層；vision 模式會帶 type 與 text
type envelope struct {
	Type        common.FlexString `json:"type"`
	Text        common.FlexString `json:"text"`
	Ingredients json.RawMessage   `json:"ingredients"`
}

func (e *envelope) isReceipt() bool {
	return strings.EqualFold(strings.TrimSpace(string(e.Type)), "receipt")
}

type rawItem struct {
	Name       common.FlexString  `json:"name"`
	Quantity   common.FlexInt     `json:"quantity"`
	Confidence common.FlexInt     `json:"confidence"`
	Freshness  common.FlexString  `json:"freshness"`
	Storage    common.FlexStrings `json:"storage"`
	Recipes    common.FlexStrings `json:"recipes"`
	Nutrition  json.RawMessage    `json:"nutrition"`
	Tips       common.FlexStrings `json:"tips"`
}

type rawNutrition struct {
	Calories common.FlexFloat  `json:"calories"`
	Protein  common.FlexFloat  `json:"protein"`
	Carbs    common.FlexFloat  `json:"carbs"`
	Fat      common.FlexFloat  `json:"fat"`
	Vitamin  common.FlexString `json:"vitamin"`
}

// Normalize 解析已抽出的 JSON 文字並補齊每個欄位
//
// 錯誤分類：common.ErrMalformedJSON（解析失敗）、common.ErrEmptyResult
// （ingredients 不是非空陣列）、common.ErrUnrecognized（全部都是無法辨識標記）。
func Normalize(jsonText string, mode Mode) (*common.ObservationBatch, error) {
	env, err := parseEnvelope(jsonText)
	if err != nil {
		return nil, err
	}
	return normalizeEnvelope(env, mode)
}

func parseEnvelope(jsonText string) (*envelope, error) {
	var env envelope
	if err := common.ParseJSON(jsonText, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedJSON, err)
	}
	return &env, nil
}

func normalizeEnvelope(env *envelope, mode Mode) (*common.ObservationBatch, error) {
	trimmed := strings.TrimSpace(string(env.Ingredients))
	if trimmed == "" || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: ingredients is not an array", common.ErrEmptyResult)
	}

	var items []rawItem
	if err := json.Unmarshal(env.Ingredients, &items); err != nil {
		return nil, fmt.Errorf("%w: ingredients items: %w", common.ErrMalformedJSON, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: ingredients is empty", common.ErrEmptyResult)
	}

	batch := &common.ObservationBatch{Ingredients: make([]common.IngredientObservation, 0, len(items))}
	unknown := 0
	for _, item := range items {
		obs := normalizeItem(item, mode)
		if label := mode.UnknownLabel(); label != "" && obs.Name == label {
			unknown++
		}
		if obs.Confidence < LowConfidenceThreshold {
			batch.Warning = warnLowConfidence
		}
		batch.Ingredients = append(batch.Ingredients, obs)
	}

	if unknown == len(batch.Ingredients) {
		return nil, fmt.Errorf("%w: %d item(s) labelled %q", common.ErrUnrecognized, unknown, mode.UnknownLabel())
	}

	batch.Recount()
	return batch, nil
}

func normalizeItem(item rawItem, mode Mode) common.IngredientObservation {
	return FillDefaults(common.IngredientObservation{
		Name:       string(item.Name),
		Quantity:   int(item.Quantity),
		Confidence: int(item.Confidence),
		Freshness:  common.Freshness(item.Freshness),
		Storage:    []string(item.Storage),
		Recipes:    []string(item.Recipes),
		Tips:       []string(item.Tips),
		Nutrition:  normalizeNutrition(item.Nutrition),
	}, mode)
}

// FillDefaults 依固定順序補預設值：名稱、quantity、confidence、freshness、清單、營養
//
// 已儲存的紀錄讀回時也經過這裡，確保每個欄位都有值。
func FillDefaults(obs common.IngredientObservation, mode Mode) common.IngredientObservation {
	obs.Name = strings.TrimSpace(obs.Name)
	if obs.Name == "" {
		obs.Name = mode.UnknownLabel()
	}

	obs.Quantity = common.ClampQuantity(obs.Quantity)
	if obs.Confidence <= 0 {
		obs.Confidence = mode.DefaultConfidence()
	}
	if obs.Confidence > 100 {
		obs.Confidence = 100
	}
	obs.Freshness = common.Freshness(strings.ToLower(strings.TrimSpace(string(obs.Freshness))))
	if !obs.Freshness.Valid() {
		obs.Freshness = common.FreshnessGood
	}
	if len(obs.Storage) == 0 {
		obs.Storage = defaultStorage(obs.Name)
	}
	if len(obs.Recipes) == 0 {
		obs.Recipes = defaultRecipes(obs.Name)
	}
	if strings.TrimSpace(obs.Nutrition.Vitamin) == "" {
		obs.Nutrition.Vitamin = noVitaminInfo
	}
	if len(obs.Tips) == 0 {
		obs.Tips = defaultTips(obs.Name)
	}
	return obs
}

// normalizeNutrition 不存在或是空物件時回傳全零並標示無資訊
func normalizeNutrition(raw json.RawMessage) common.Nutrition {
	out := common.Nutrition{Vitamin: noVitaminInfo}

	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return out
	}

	var n rawNutrition
	if err := json.Unmarshal(raw, &n); err != nil {
		return out
	}
	out.Calories = float64(n.Calories)
	out.Protein = float64(n.Protein)
	out.Carbs = float64(n.Carbs)
	out.Fat = float64(n.Fat)
	if v := strings.TrimSpace(string(n.Vitamin)); v != "" {
		out.Vitamin = v
	}
	return out
}
