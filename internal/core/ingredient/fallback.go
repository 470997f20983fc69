package ingredient

import (
	"fmt"

	"smart-fridge/internal/pkg/common"
)

const (
	warnFallback = "AI 응답 처리 중 문제가 발생하여 기본 정보를 제공합니다."

	fallbackName = "알 수 없는 식품"
)

func defaultStorage(name string) []string {
	return []string{
		fmt.Sprintf("%s을(를) 서늘하고 건조한 곳에 보관하세요", name),
		"냉장보관으로 신선도를 유지하세요",
		"직사광선을 피해 보관하세요",
	}
}

func defaultRecipes(name string) []string {
	return []string{
		fmt.Sprintf("%s 볶음 (조리시간: 15분)", name),
		fmt.Sprintf("%s 샐러드 (조리시간: 5분)", name),
		fmt.Sprintf("%s 스프 (조리시간: 20분)", name),
	}
}

func defaultTips(name string) []string {
	return []string{
		fmt.Sprintf("신선한 %s을(를) 선택하세요", name),
		"적절한 보관으로 오래 유지하세요",
		"다양한 요리법으로 활용해보세요",
	}
}

// FallbackBatch 模型回應無法解析時回傳的單項結果
func FallbackBatch() *common.ObservationBatch {
	batch := &common.ObservationBatch{
		Ingredients: []common.IngredientObservation{{
			Name:       fallbackName,
			Quantity:   1,
			Confidence: 50,
			Freshness:  common.FreshnessGood,
			Storage:    []string{"안전한 보관을 위해 냉장 보관을 권장합니다"},
			Recipes:    []string{"정확한 식재료 확인 후 요리해주세요"},
			Nutrition:  common.Nutrition{Vitamin: noVitaminInfo},
			Tips:       []string{"더 명확한 이미지로 다시 시도해보세요", "조명이 좋은 곳에서 촬영해보세요"},
		}},
		Warning: warnFallback,
	}
	batch.Recount()
	return batch
}

// FallbackLookup 單品查詢無法解析時的預設資訊
func FallbackLookup(name string, quantity int) common.IngredientObservation {
	return common.IngredientObservation{
		Name:       name,
		Quantity:   quantity,
		Confidence: 90,
		Freshness:  common.FreshnessGood,
		Storage:    []string{fmt.Sprintf("%s을(를) 서늘하고 건조한 곳에 보관하세요", name), "냉장보관을 권장합니다"},
		Recipes:    []string{fmt.Sprintf("%s을(를) 활용한 요리를 시도해보세요", name), "신선한 상태로 섭취하세요"},
		Nutrition:  common.Nutrition{Vitamin: "확인 필요"},
		Tips:       []string{fmt.Sprintf("신선한 %s을(를) 선택하세요", name), "적절한 보관으로 오래 유지하세요"},
	}
}
