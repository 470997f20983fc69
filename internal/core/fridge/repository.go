package fridge

import (
	"context"
	"errors"
	"fmt"

	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

// InventoryKey 冰箱清單在儲存層中的鍵
const InventoryKey = "fridge:ingredients"

// Repository 整份冰箱清單的讀寫
type Repository interface {
	Get(ctx context.Context) ([]common.FridgeItem, error)
	Put(ctx context.Context, items []common.FridgeItem) error
}

// KVRepository 將整份清單以 JSON 存在單一鍵
type KVRepository struct {
	kv  store.KV
	key string
}

// NewKVRepository 建立以鍵值儲存為底的冰箱清單
func NewKVRepository(kv store.KV) *KVRepository {
	return &KVRepository{kv: kv, key: InventoryKey}
}

// Get 讀取清單；不存在時視為空清單，內容無法解析時回傳錯誤且不做任何修改
func (r *KVRepository) Get(ctx context.Context) ([]common.FridgeItem, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, store.ErrNotFound) {
		return []common.FridgeItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []common.FridgeItem
	if err := common.ParseJSONBytes(raw, &items); err != nil {
		common.LogError("冰箱清單格式錯誤", zap.String("key", r.key), zap.Int("bytes", len(raw)), zap.Error(err))
		return nil, fmt.Errorf("%w: decode %s: %w", common.ErrTransport, r.key, err)
	}
	if items == nil {
		items = []common.FridgeItem{}
	}
	return items, nil
}

// Put 整份寫回
func (r *KVRepository) Put(ctx context.Context, items []common.FridgeItem) error {
	return store.SetJSON(ctx, r.kv, r.key, items)
}
