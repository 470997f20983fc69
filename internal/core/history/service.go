package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// KeyPrefix 紀錄鍵的前綴
	KeyPrefix = "ingredient:"

	DefaultLimit = 10
	MaxLimit     = 100

	msgNotFound        = "Record not found"
	msgInvalidData     = "Ingredient data is required"
	msgStore           = "기록을 처리하는 중 오류가 발생했습니다."
	msgPlaceholderFail = "텍스트 입력 이미지를 생성할 수 없습니다."
)

// PlaceholderRenderer 為沒有照片的紀錄產生預覽圖
type PlaceholderRenderer interface {
	RenderPlaceholder(text string, items int, at time.Time) (string, error)
}

// SaveRequest 新增紀錄的輸入
type SaveRequest struct {
	ImageData      string          `json:"imageData"`
	IngredientData json.RawMessage `json:"ingredientData"`
	Timestamp      string          `json:"timestamp"`
	// SourceText 文字輸入時的原文，用於預覽圖
	SourceText string `json:"sourceText"`
}

// Service 辨識紀錄服務
type Service struct {
	kv     store.KV
	images PlaceholderRenderer
	now    func() time.Time
	newID  func() string
}

// NewService 創建紀錄服務
func NewService(kv store.KV, images PlaceholderRenderer) *Service {
	return &Service{kv: kv, images: images, now: common.Now, newID: common.GenerateUUID}
}

func recordKey(id string) string {
	return KeyPrefix + id
}

// Save 新增一筆紀錄並回傳 id
func (s *Service) Save(ctx context.Context, req SaveRequest) (string, error) {
	batch, err := decodeIngredientData(req.IngredientData)
	if err == nil && len(batch.Ingredients) == 0 {
		err = errEmptyBatch
	}
	if err != nil {
		return "", common.NewError(common.ErrCodeInvalidRequest, msgInvalidData, http.StatusBadRequest, err)
	}
	normalized, err := json.Marshal(batch)
	if err != nil {
		return "", common.NewError(common.ErrCodeInternalError, msgStore, http.StatusInternalServerError, err)
	}

	now := s.now()
	imageData := req.ImageData
	if strings.TrimSpace(imageData) == "" {
		text := strings.TrimSpace(req.SourceText)
		if text == "" {
			text = strings.Join(ingredientNames(batch), ", ")
		}
		imageData, err = s.images.RenderPlaceholder(text, len(batch.Ingredients), now)
		if err != nil {
			return "", common.NewError(common.ErrCodeInternalError, msgPlaceholderFail, http.StatusInternalServerError, err)
		}
	}

	timestamp := strings.TrimSpace(req.Timestamp)
	if timestamp == "" {
		timestamp = now.Format(time.RFC3339Nano)
	}

	rec := storedRecord{
		ID:             s.newID(),
		ImageData:      imageData,
		IngredientData: normalized,
		Timestamp:      timestamp,
		CreatedAt:      now,
	}
	if err := store.SetJSON(ctx, s.kv, recordKey(rec.ID), rec); err != nil {
		return "", storeError("save", err)
	}

	common.LogInfo("辨識紀錄已儲存",
		zap.String("id", rec.ID),
		zap.Int("ingredients", len(batch.Ingredients)),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)
	return rec.ID, nil
}

// Recent 依 createdAt 由新到舊回傳最多 limit 筆；無法解析的紀錄會被略過
func (s *Service) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := s.kv.ScanPrefix(ctx, KeyPrefix)
	if err != nil {
		return nil, storeError("scan", err)
	}

	records := make([]*Record, 0, len(entries))
	for _, e := range entries {
		var stored storedRecord
		if err := json.Unmarshal(e.Value, &stored); err != nil {
			common.LogWarn("略過無法解析的紀錄", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		rec, err := stored.toRecord()
		if err != nil {
			common.LogWarn("略過無法解析的紀錄", zap.String("key", e.Key), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Get 讀取單筆紀錄
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	stored, err := store.GetJSON[storedRecord](ctx, s.kv, recordKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, common.NewNotFoundError(msgNotFound)
	}
	if err != nil {
		return nil, storeError("get", err)
	}
	rec, err := stored.toRecord()
	if err != nil {
		return nil, storeError("decode", err)
	}
	return rec, nil
}

// Delete 刪除單筆紀錄；不影響冰箱清單
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.kv.Get(ctx, recordKey(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NewNotFoundError(msgNotFound)
		}
		return storeError("get", err)
	}
	if err := s.kv.Delete(ctx, recordKey(id)); err != nil {
		return storeError("delete", err)
	}
	common.LogInfo("辨識紀錄已刪除", zap.String("id", id))
	return nil
}

func storeError(op string, err error) error {
	common.LogError("紀錄儲存層錯誤", zap.String("op", op), zap.Error(err))
	return common.NewError(common.ErrCodeStore, msgStore, http.StatusInternalServerError, err)
}
