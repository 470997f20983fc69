package fridge

import (
	"strings"
	"time"

	"smart-fridge/internal/pkg/common"
)

// Incoming 要合併進冰箱的一個食材
type Incoming struct {
	Name      string
	Quantity  int
	Freshness common.Freshness
	Storage   []string
}

// FromObservations 將辨識結果轉為合併輸入
func FromObservations(obs []common.IngredientObservation) []Incoming {
	out := make([]Incoming, 0, len(obs))
	for _, o := range obs {
		out = append(out, Incoming{
			Name:      o.Name,
			Quantity:  o.Quantity,
			Freshness: o.Freshness,
			Storage:   o.Storage,
		})
	}
	return out
}

// Reconcile 依名稱（忽略大小寫）將 incoming 依序合併進 existing
//
// 同名時保留 id、addedAt 與 expiryDate，數量相加，名稱、新鮮度與保存方式以新的為準；
// 沒有同名時新增一筆。existing 不會被修改，空名稱的項目會被略過。
func Reconcile(existing []common.FridgeItem, incoming []Incoming, now time.Time, newID func() string) []common.FridgeItem {
	items := make([]common.FridgeItem, len(existing), len(existing)+len(incoming))
	copy(items, existing)

	for _, in := range incoming {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		quantity := common.ClampQuantity(in.Quantity)
		freshness := in.Freshness
		if !freshness.Valid() {
			freshness = common.FreshnessGood
		}
		storage := append([]string(nil), in.Storage...)

		if idx := indexByName(items, name); idx >= 0 {
			cur := items[idx]
			cur.Name = name
			cur.Quantity = min(cur.Quantity+quantity, common.MaxQuantity)
			cur.Freshness = freshness
			cur.Storage = storage
			cur.UpdatedAt = now
			items[idx] = cur
			continue
		}

		items = append(items, common.FridgeItem{
			ID:        newID(),
			Name:      name,
			Quantity:  quantity,
			Freshness: freshness,
			Storage:   storage,
			AddedAt:   now,
			UpdatedAt: now,
		})
	}
	return items
}

func indexByName(items []common.FridgeItem, name string) int {
	for i := range items {
		if common.SameName(items[i].Name, name) {
			return i
		}
	}
	return -1
}

// nameTakenBy 回傳持有該名稱（忽略大小寫）的其他項目 id
func nameTakenBy(items []common.FridgeItem, name, exceptID string) (string, bool) {
	for i := range items {
		if items[i].ID != exceptID && common.SameName(items[i].Name, name) {
			return items[i].ID, true
		}
	}
	return "", false
}

func indexByID(items []common.FridgeItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
