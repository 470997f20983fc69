package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"smart-fridge/internal/pkg/common"
)

const (
	defaultCookingTime = "30분"
	defaultPrepTime    = "10분"
	defaultServings    = "2인분"
	defaultCalories    = "400kcal"
)

func defaultNutrition() DetailNutrition {
	return DetailNutrition{Protein: "15g", Carbs: "45g", Fat: "12g", Fiber: "8g"}
}

type rawSummary struct {
	Name                 common.FlexString `json:"name"`
	Difficulty           common.FlexString `json:"difficulty"`
	CookingTime          common.FlexString `json:"cookingTime"`
	Servings             common.FlexString `json:"servings"`
	Description          common.FlexString `json:"description"`
	AvailableIngredients json.RawMessage   `json:"availableIngredients"`
	MissingIngredients   json.RawMessage   `json:"missingIngredients"`
	Category             common.FlexString `json:"category"`
}

type rawDetail struct {
	Name         common.FlexString `json:"name"`
	Description  common.FlexString `json:"description"`
	Difficulty   common.FlexString `json:"difficulty"`
	CookingTime  common.FlexString `json:"cookingTime"`
	PrepTime     common.FlexString `json:"prepTime"`
	Servings     common.FlexString `json:"servings"`
	Calories     common.FlexString `json:"calories"`
	Ingredients  json.RawMessage   `json:"ingredients"`
	Instructions json.RawMessage   `json:"instructions"`
	Tips         json.RawMessage   `json:"tips"`
	Nutrition    json.RawMessage   `json:"nutrition"`
	Tags         json.RawMessage   `json:"tags"`
}

type rawDetailIngredient struct {
	Name      common.FlexString `json:"name"`
	Amount    common.FlexString `json:"amount"`
	Essential json.RawMessage   `json:"essential"`
}

type rawInstruction struct {
	Step        common.FlexInt    `json:"step"`
	Title       common.FlexString `json:"title"`
	Description common.FlexString `json:"description"`
	Tip         common.FlexString `json:"tip"`
}

type rawNutrition struct {
	Protein common.FlexString `json:"protein"`
	Carbs   common.FlexString `json:"carbs"`
	Fat     common.FlexString `json:"fat"`
	Fiber   common.FlexString `json:"fiber"`
}

// parseRecommendations 解析推薦回應；缺少 recipes 陣列視為解析失敗
func parseRecommendations(jsonText string) ([]Summary, error) {
	var envelope struct {
		Recipes json.RawMessage `json:"recipes"`
	}
	if err := common.ParseJSON(jsonText, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedJSON, err)
	}
	if !isArray(envelope.Recipes) {
		return nil, fmt.Errorf("%w: recipes array is missing", common.ErrMalformedJSON)
	}

	var items []rawSummary
	if err := json.Unmarshal(envelope.Recipes, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedJSON, err)
	}

	recipes := make([]Summary, 0, len(items))
	for i, item := range items {
		recipes = append(recipes, normalizeSummary(item, i))
	}
	return recipes, nil
}

func normalizeSummary(item rawSummary, index int) Summary {
	s := Summary{
		Name:                 orDefault(item.Name, fmt.Sprintf("추천 레시피 %d", index+1)),
		Difficulty:           DifficultyNormal,
		CookingTime:          orDefault(item.CookingTime, defaultCookingTime),
		Servings:             orDefault(item.Servings, defaultServings),
		Description:          orDefault(item.Description, "맛있는 요리입니다"),
		AvailableIngredients: stringList(item.AvailableIngredients, []string{}),
		MissingIngredients:   stringList(item.MissingIngredients, []string{}),
		Category:             CategoryOther,
	}
	if d := strings.TrimSpace(string(item.Difficulty)); oneOf(d, difficulties) {
		s.Difficulty = d
	}
	if c := strings.TrimSpace(string(item.Category)); oneOf(c, categories) {
		s.Category = c
	}
	return s
}

// parseDetail 解析詳細食譜回應；缺少 recipe 物件視為解析失敗
func parseDetail(jsonText, name string) (*Detail, error) {
	var envelope struct {
		Recipe json.RawMessage `json:"recipe"`
	}
	if err := common.ParseJSON(jsonText, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedJSON, err)
	}
	if !isObject(envelope.Recipe) {
		return nil, fmt.Errorf("%w: recipe object is missing", common.ErrMalformedJSON)
	}

	var raw rawDetail
	if err := json.Unmarshal(envelope.Recipe, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedJSON, err)
	}
	return normalizeDetail(raw, name)
}

func normalizeDetail(raw rawDetail, name string) (*Detail, error) {
	d := &Detail{
		Name:        orDefault(raw.Name, name),
		Description: orDefault(raw.Description, fmt.Sprintf("%s에 대한 맛있는 레시피입니다", name)),
		Difficulty:  DifficultyNormal,
		CookingTime: orDefault(raw.CookingTime, defaultCookingTime),
		PrepTime:    orDefault(raw.PrepTime, defaultPrepTime),
		Servings:    orDefault(raw.Servings, defaultServings),
		Calories:    orDefault(raw.Calories, defaultCalories),
		Tips:        stringList(raw.Tips, []string{fmt.Sprintf("%s을(를) 맛있게 드세요", name)}),
		Nutrition:   normalizeNutrition(raw.Nutrition),
		Tags:        stringList(raw.Tags, []string{"맛있는", "건강한"}),
	}
	if v := strings.TrimSpace(string(raw.Difficulty)); oneOf(v, difficulties) {
		d.Difficulty = v
	}

	if isArray(raw.Ingredients) {
		var items []rawDetailIngredient
		if err := json.Unmarshal(raw.Ingredients, &items); err != nil {
			return nil, fmt.Errorf("%w: ingredients: %w", common.ErrMalformedJSON, err)
		}
		d.Ingredients = make([]DetailIngredient, 0, len(items))
		for _, it := range items {
			d.Ingredients = append(d.Ingredients, DetailIngredient{
				Name:      orDefault(it.Name, "재료"),
				Amount:    orDefault(it.Amount, "적당량"),
				Essential: boolOr(it.Essential, true),
			})
		}
	} else {
		d.Ingredients = []DetailIngredient{{Name: "주재료", Amount: "적당량", Essential: true}}
	}

	if isArray(raw.Instructions) {
		var items []rawInstruction
		if err := json.Unmarshal(raw.Instructions, &items); err != nil {
			return nil, fmt.Errorf("%w: instructions: %w", common.ErrMalformedJSON, err)
		}
		d.Instructions = make([]Instruction, 0, len(items))
		for i, it := range items {
			step := int(it.Step)
			if step <= 0 {
				step = i + 1
			}
			d.Instructions = append(d.Instructions, Instruction{
				Step:        step,
				Title:       orDefault(it.Title, fmt.Sprintf("단계 %d", i+1)),
				Description: orDefault(it.Description, "조리 과정을 진행하세요"),
				Tip:         strings.TrimSpace(string(it.Tip)),
			})
		}
	} else {
		d.Instructions = []Instruction{{Step: 1, Title: "조리 시작", Description: fmt.Sprintf("%s을(를) 맛있게 조리하세요", name)}}
	}

	return d, nil
}

func normalizeNutrition(raw json.RawMessage) DetailNutrition {
	n := defaultNutrition()
	if !isObject(raw) {
		return n
	}
	var in rawNutrition
	if err := json.Unmarshal(raw, &in); err != nil {
		return n
	}
	n.Protein = orDefault(in.Protein, n.Protein)
	n.Carbs = orDefault(in.Carbs, n.Carbs)
	n.Fat = orDefault(in.Fat, n.Fat)
	n.Fiber = orDefault(in.Fiber, n.Fiber)
	return n
}

func orDefault(v common.FlexString, def string) string {
	if s := strings.TrimSpace(string(v)); s != "" {
		return s
	}
	return def
}

// stringList 只接受陣列；其他型別（含缺少）回傳 def
func stringList(raw json.RawMessage, def []string) []string {
	if !isArray(raw) {
		return def
	}
	var list common.FlexStrings
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func boolOr(raw json.RawMessage, def bool) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
