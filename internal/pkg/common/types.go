package common

import (
	"strings"
	"time"
)

// Freshness 新鮮度
type Freshness string

const (
	FreshnessExcellent Freshness = "excellent"
	FreshnessGood      Freshness = "good"
	FreshnessFair      Freshness = "fair"
	FreshnessPoor      Freshness = "poor"
)

// Valid 是否為允許的新鮮度值
func (f Freshness) Valid() bool {
	switch f {
	case FreshnessExcellent, FreshnessGood, FreshnessFair, FreshnessPoor:
		return true
	}
	return false
}

// Nutrition 每 100g 營養資訊
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Vitamin  string  `json:"vitamin"`
}

// IngredientObservation 一次辨識中的單一食材
type IngredientObservation struct {
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Confidence int       `json:"confidence"`
	Freshness  Freshness `json:"freshness"`
	Storage    []string  `json:"storage"`
	Recipes    []string  `json:"recipes"`
	Nutrition  Nutrition `json:"nutrition"`
	Tips       []string  `json:"tips"`
}

// ObservationBatch 一次辨識的結果
type ObservationBatch struct {
	Ingredients []IngredientObservation `json:"ingredients"`
	TotalCount  int                     `json:"totalCount"`
	Warning     string                  `json:"warning,omitempty"`
}

// MaxQuantity 單一食材數量上限，超過時截斷
const MaxQuantity = 1_000_000

// ClampQuantity 將數量限制在 [1, MaxQuantity]
func ClampQuantity(q int) int {
	if q <= 0 {
		return 1
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Recount 重新計算 totalCount
func (b *ObservationBatch) Recount() {
	total := 0
	for _, ing := range b.Ingredients {
		total += ing.Quantity
	}
	b.TotalCount = total
}

// FridgeItem 冰箱中的一個食材
type FridgeItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Freshness  Freshness `json:"freshness"`
	Storage    []string  `json:"storage"`
	AddedAt    time.Time `json:"addedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ExpiryDate *string   `json:"expiryDate"`
}

// SameName 名稱比對（忽略大小寫與前後空白）
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// InventoryEntry 提示詞中使用的名稱與數量
type InventoryEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
