package recipe

// Difficulty 與 Category 的合法值
const (
	DifficultyEasy   = "쉬움"
	DifficultyNormal = "보통"
	DifficultyHard   = "어려움"

	CategoryKorean   = "한식"
	CategoryWestern  = "양식"
	CategoryChinese  = "중식"
	CategoryJapanese = "일식"
	CategoryDessert  = "디저트"
	CategoryOther    = "기타"
)

var (
	difficulties = []string{DifficultyEasy, DifficultyNormal, DifficultyHard}
	categories   = []string{CategoryKorean, CategoryWestern, CategoryChinese, CategoryJapanese, CategoryDessert, CategoryOther}
)

// Summary 推薦清單中的一道料理
type Summary struct {
	Name                 string   `json:"name"`
	Difficulty           string   `json:"difficulty"`
	CookingTime          string   `json:"cookingTime"`
	Servings             string   `json:"servings"`
	Description          string   `json:"description"`
	AvailableIngredients []string `json:"availableIngredients"`
	MissingIngredients   []string `json:"missingIngredients"`
	Category             string   `json:"category"`
}

// DetailIngredient 詳細食譜的材料
type DetailIngredient struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Essential bool   `json:"essential"`
}

// Instruction 料理步驟
type Instruction struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tip         string `json:"tip,omitempty"`
}

// DetailNutrition 每份營養資訊（字串含單位，例如 "15g"）
type DetailNutrition struct {
	Protein string `json:"protein"`
	Carbs   string `json:"carbs"`
	Fat     string `json:"fat"`
	Fiber   string `json:"fiber"`
}

// Detail 詳細食譜
type Detail struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Difficulty   string             `json:"difficulty"`
	CookingTime  string             `json:"cookingTime"`
	PrepTime     string             `json:"prepTime"`
	Servings     string             `json:"servings"`
	Calories     string             `json:"calories"`
	Ingredients  []DetailIngredient `json:"ingredients"`
	Instructions []Instruction      `json:"instructions"`
	Tips         []string           `json:"tips"`
	Nutrition    DetailNutrition    `json:"nutrition"`
	Tags         []string           `json:"tags"`
}

// RecommendResult 推薦結果；Warning 非空表示使用了預設食譜
type RecommendResult struct {
	Recipes []Summary
	Warning string
}

// DetailResult 詳細食譜結果
type DetailResult struct {
	Recipe  *Detail
	Warning string
	Cached  bool
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
