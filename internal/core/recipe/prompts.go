package recipe

import (
	"fmt"
	"strings"

	"smart-fridge/internal/pkg/common"
)

// formatInventory 產生 "사과 2개, 우유 1개" 形式的清單
func formatInventory(inventory []common.InventoryEntry) string {
	parts := make([]string, 0, len(inventory))
	for _, ing := range inventory {
		parts = append(parts, fmt.Sprintf("%s %d개", ing.Name, ing.Quantity))
	}
	return strings.Join(parts, ", ")
}

func buildRecommendPrompt(inventory []common.InventoryEntry, userRequest string) string {
	userRequest = strings.TrimSpace(userRequest)
	requestText, requestRule := "", ""
	if userRequest != "" {
		requestText = "\n\n사용자 요청사항: " + userRequest
		requestRule = "\n- 사용자 요청사항을 최대한 반영하여 추천"
	}

	return fmt.Sprintf(`당신은 레시피 추천 전문가입니다. 다음 냉장고 식재료들을 기반으로 만들 수 있는 요리 3-5개를 추천해주세요:

보유 식재료: %s%s

반드시 아래 JSON 형식으로만 응답해주세요. 다른 텍스트나 설명은 절대 포함하지 마세요:

{
  "recipes": [
    {
      "name": "요리 이름",
      "difficulty": "쉬움",
      "cookingTime": "30분",
      "servings": "2인분",
      "description": "요리에 대한 간단한 설명",
      "availableIngredients": ["사용 가능한 보유 식재료"],
      "missingIngredients": ["부족한 식재료 (없으면 빈 배열)"],
      "category": "한식"
    }
  ]
}

규칙:
- 보유 식재료만으로 만들 수 있는 요리 우선 추천
- 1-2개 재료만 부족한 현실적 요리 포함%s
- difficulty는 "쉬움", "보통", "어려움" 중 하나
- category는 "한식", "양식", "중식", "일식", "디저트", "기타" 중 하나
- 응답은 순수 JSON만, 코드블록이나 다른 텍스트 없이`, formatInventory(inventory), requestText, requestRule)
}

func buildDetailPrompt(name string, inventory []common.InventoryEntry) string {
	owned := ""
	if len(inventory) > 0 {
		owned = "보유 식재료: " + formatInventory(inventory)
	}

	return fmt.Sprintf(`당신은 요리 전문가입니다. "%[1]s" 요리의 상세한 레시피를 제공해주세요.

%[2]s

반드시 아래 JSON 형식으로만 응답해주세요. 다른 텍스트나 설명은 절대 포함하지 마세요:

{
  "recipe": {
    "name": "%[1]s",
    "description": "요리에 대한 상세한 설명",
    "difficulty": "쉬움",
    "cookingTime": "30분",
    "prepTime": "10분",
    "servings": "2인분",
    "calories": "400kcal",
    "ingredients": [
      {
        "name": "재료명",
        "amount": "필요한 양",
        "essential": true
      }
    ],
    "instructions": [
      {
        "step": 1,
        "title": "단계 제목",
        "description": "상세한 조리 방법",
        "tip": "조리 팁"
      }
    ],
    "tips": ["유용한 조리 팁들"],
    "nutrition": {
      "protein": "15g",
      "carbs": "45g",
      "fat": "12g",
      "fiber": "8g"
    },
    "tags": ["간단", "건강", "맛있는"]
  }
}

규칙:
- 실제로 만들 수 있는 현실적인 레시피
- 초보자도 따라할 수 있게 친절하고 구체적으로 설명
- difficulty는 "쉬움", "보통", "어려움" 중 하나
- 응답은 순수 JSON만, 코드블록이나 다른 텍스트 없이`, name, owned)
}
