package recipe

import (
	"fmt"

	"smart-fridge/internal/pkg/common"
)

const (
	warnParseFallback     = "AI 응답 파싱에 실패하여 기본 레시피를 제공합니다"
	warnTransportFallback = "AI 서비스에 연결할 수 없어 기본 레시피를 제공합니다"
)

func firstNames(inventory []common.InventoryEntry, n int) []string {
	if n > len(inventory) {
		n = len(inventory)
	}
	names := make([]string, 0, n)
	for _, ing := range inventory[:n] {
		names = append(names, ing.Name)
	}
	return names
}

// FallbackRecommendations 模型回應無法使用時的固定推薦
func FallbackRecommendations(inventory []common.InventoryEntry) []Summary {
	return []Summary{
		{
			Name:                 "간단한 볶음밥",
			Difficulty:           DifficultyEasy,
			CookingTime:          "15분",
			Servings:             "1인분",
			Description:          "냉장고 재료로 만드는 간단한 볶음밥",
			AvailableIngredients: firstNames(inventory, 3),
			MissingIngredients:   []string{"밥", "간장"},
			Category:             CategoryKorean,
		},
		{
			Name:                 "야채 스프",
			Difficulty:           DifficultyEasy,
			CookingTime:          "20분",
			Servings:             "2인분",
			Description:          "영양가득한 야채 스프",
			AvailableIngredients: firstNames(inventory, 2),
			MissingIngredients:   []string{"물", "소금"},
			Category:             CategoryWestern,
		},
	}
}

// FallbackDetail 模型回應無法使用時的固定詳細食譜
func FallbackDetail(name string) *Detail {
	return &Detail{
		Name:        name,
		Description: fmt.Sprintf("%s에 대한 기본 레시피입니다", name),
		Difficulty:  DifficultyNormal,
		CookingTime: defaultCookingTime,
		PrepTime:    defaultPrepTime,
		Servings:    defaultServings,
		Calories:    defaultCalories,
		Ingredients: []DetailIngredient{
			{Name: "주재료", Amount: "적당량", Essential: true},
			{Name: "조미료", Amount: "약간", Essential: false},
		},
		Instructions: []Instruction{
			{Step: 1, Title: "재료 준비", Description: "필요한 재료들을 준비합니다"},
			{Step: 2, Title: "조리 시작", Description: fmt.Sprintf("%s을(를) 조리합니다", name)},
			{Step: 3, Title: "완성", Description: "맛있게 완성하여 드세요"},
		},
		Tips:      []string{"신선한 재료를 사용하세요", "중간 불에서 조리하세요"},
		Nutrition: defaultNutrition(),
		Tags:      []string{"간단", "맛있는"},
	}
}
