package history

import (
	"encoding/json"
	"errors"
	"time"

	"smart-fridge/internal/core/ingredient"
	"smart-fridge/internal/pkg/common"
)

var (
	errUnknownShape = errors.New("ingredientData is neither a batch nor a single ingredient")
	errEmptyBatch   = errors.New("ingredientData has no ingredients")
)

// recordMode 紀錄不保存辨識來源，讀回時以影像辨識的預設值補齊
const recordMode = ingredient.ModeVision

// Record 一次辨識的紀錄；讀取時 IngredientData 一律是批次形式
type Record struct {
	ID             string                  `json:"id"`
	ImageData      string                  `json:"imageData"`
	IngredientData common.ObservationBatch `json:"ingredientData"`
	Timestamp      string                  `json:"timestamp"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// storedRecord 儲存層中的格式；ingredientData 保留原樣
type storedRecord struct {
	ID             string          `json:"id"`
	ImageData      string          `json:"imageData"`
	IngredientData json.RawMessage `json:"ingredientData"`
	Timestamp      string          `json:"timestamp"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (s *storedRecord) toRecord() (*Record, error) {
	batch, err := decodeIngredientData(s.IngredientData)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:             s.ID,
		ImageData:      s.ImageData,
		IngredientData: batch,
		Timestamp:      s.Timestamp,
		CreatedAt:      s.CreatedAt,
	}, nil
}

// decodeIngredientData 接受批次或舊版的單一食材，統一轉為批次並補齊每個欄位
func decodeIngredientData(raw json.RawMessage) (common.ObservationBatch, error) {
	batch, err := decodeBatchShape(raw)
	if err != nil {
		return common.ObservationBatch{}, err
	}
	for i := range batch.Ingredients {
		batch.Ingredients[i] = ingredient.FillDefaults(batch.Ingredients[i], recordMode)
	}
	batch.Recount()
	return batch, nil
}

func decodeBatchShape(raw json.RawMessage) (common.ObservationBatch, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return common.ObservationBatch{}, err
	}

	switch {
	case probe["ingredients"] != nil:
		var batch common.ObservationBatch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return common.ObservationBatch{}, err
		}
		if batch.Ingredients == nil {
			batch.Ingredients = []common.IngredientObservation{}
		}
		return batch, nil
	case probe["name"] != nil:
		var single struct {
			common.IngredientObservation
			Warning string `json:"_warning"`
		}
		if err := json.Unmarshal(raw, &single); err != nil {
			return common.ObservationBatch{}, err
		}
		batch := common.ObservationBatch{
			Ingredients: []common.IngredientObservation{single.IngredientObservation},
			Warning:     single.Warning,
		}
		return batch, nil
	default:
		return common.ObservationBatch{}, errUnknownShape
	}
}

// ingredientNames 用於產生文字輸入的預覽圖
func ingredientNames(batch common.ObservationBatch) []string {
	names := make([]string, 0, len(batch.Ingredients))
	for _, ing := range batch.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
