package fridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	msgNotFound      = "Ingredient not found"
	msgReconcile     = "냉장고 업데이트 중 오류가 발생했습니다."
	msgStore         = "냉장고 정보를 불러오는 중 오류가 발생했습니다."
	msgQuantity      = "Quantity must be a non-negative integer"
	msgInvalidExpiry = "expiryDate must be a string or null"
	msgDuplicateName = "같은 이름의 식재료가 이미 냉장고에 있습니다."
)

// Update 單一食材的手動修改；nil 欄位保持原值
type Update struct {
	Name     *string
	Quantity *int
	// ExpirySet 為 true 時以 ExpiryDate 取代原值（nil 表示清除）
	ExpirySet  bool
	ExpiryDate *string
}

// UnmarshalJSON 區分 expiryDate 缺少與 null
func (u *Update) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       *string         `json:"name"`
		Quantity   *int            `json:"quantity"`
		ExpiryDate json.RawMessage `json:"expiryDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Name = raw.Name
	u.Quantity = raw.Quantity
	u.ExpirySet = false
	u.ExpiryDate = nil

	if len(raw.ExpiryDate) == 0 {
		return nil
	}
	u.ExpirySet = true
	if bytes.Equal(bytes.TrimSpace(raw.ExpiryDate), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.ExpiryDate, &s); err != nil {
		return common.NewValidationError(msgInvalidExpiry)
	}
	u.ExpiryDate = &s
	return nil
}

// Service 冰箱清單服務
//
// 每次修改都是讀取整份清單、修改、再整份寫回，儲存層沒有交易保證；
// 兩個同時進行的合併可能互相覆蓋（遺失更新）。
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// NewService 創建冰箱服務
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: common.Now, newID: common.GenerateUUID}
}

// List 取得整份清單
func (s *Service) List(ctx context.Context) ([]common.FridgeItem, error) {
	items, err := s.repo.Get(ctx)
	if err != nil {
		return nil, common.NewError(common.ErrCodeStore, msgStore, http.StatusInternalServerError, err)
	}
	return items, nil
}

// AddBatch 將一批食材合併進冰箱並回傳更新後的整份清單
// 讀寫失敗時回傳包裝 common.ErrReconciliation 的錯誤
func (s *Service) AddBatch(ctx context.Context, incoming []Incoming) ([]common.FridgeItem, error) {
	existing, err := s.repo.Get(ctx)
	if err != nil {
		return nil, reconcileError("read", err)
	}

	items := Reconcile(existing, incoming, s.now(), s.newID)
	if err := s.repo.Put(ctx, items); err != nil {
		return nil, reconcileError("write", err)
	}

	common.LogInfo("冰箱已更新",
		zap.Int("incoming", len(incoming)),
		zap.Int("before", len(existing)),
		zap.Int("after", len(items)),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)
	return items, nil
}

// Update 手動修改單一食材，不經過合併流程
func (s *Service) Update(ctx context.Context, id string, u Update) (*common.FridgeItem, error) {
	if u.Quantity != nil && *u.Quantity < 0 {
		return nil, common.NewValidationError(msgQuantity)
	}

	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexByID(items, id)
	if idx < 0 {
		return nil, common.NewNotFoundError(msgNotFound)
	}

	item := items[idx]
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		name := strings.TrimSpace(*u.Name)
		if other, taken := nameTakenBy(items, name, id); taken {
			common.LogWarn("改名與既有食材重複", zap.String("id", id), zap.String("conflict_id", other))
			return nil, common.NewValidationError(msgDuplicateName)
		}
		item.Name = name
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.ExpirySet {
		item.ExpiryDate = u.ExpiryDate
	}
	item.UpdatedAt = s.now()
	items[idx] = item

	if err := s.repo.Put(ctx, items); err != nil {
		return nil, common.NewError(common.ErrCodeStore, msgStore, http.StatusInternalServerError, err)
	}
	common.LogInfo("冰箱食材已修改", zap.String("id", id))
	return &item, nil
}

// Delete 刪除單一食材
func (s *Service) Delete(ctx context.Context, id string) error {
	items, err := s.List(ctx)
	if err != nil {
		return err
	}
	idx := indexByID(items, id)
	if idx < 0 {
		return common.NewNotFoundError(msgNotFound)
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := s.repo.Put(ctx, items); err != nil {
		return common.NewError(common.ErrCodeStore, msgStore, http.StatusInternalServerError, err)
	}
	common.LogInfo("冰箱食材已刪除", zap.String("id", id))
	return nil
}

func reconcileError(op string, err error) error {
	common.LogError("冰箱合併失敗", zap.String("op", op), zap.Error(err))
	return common.NewError(common.ErrCodeReconciliation, msgReconcile, http.StatusInternalServerError,
		fmt.Errorf("%w: %s inventory: %w", common.ErrReconciliation, op, err))
}
