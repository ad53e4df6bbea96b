package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"recipe-matcher/internal/pkg/common"
)

var difficultyLevels = map[string]int{
	"easy":   2,
	"medium": 3,
	"hard":   4,
}

const defaultDifficulty = 3

var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// flexString 接受字串或數字
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

type rawIngredient struct {
	Name   string     `json:"name"`
	Amount flexString `json:"amount"`
	Unit   flexString `json:"unit"`
}

type rawIngredientGroup struct {
	Title       string          `json:"title"`
	Ingredients []rawIngredient `json:"ingredients"`
}

type rawRecipe struct {
	ID               json.RawMessage      `json:"id"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Cuisine          string               `json:"cuisine"`
	Difficulty       string               `json:"difficulty"`
	CookTime         json.RawMessage      `json:"cookTime"`
	Servings         int                  `json:"servings"`
	Ingredients      []rawIngredient      `json:"ingredients"`
	IngredientGroups []rawIngredientGroup `json:"ingredientGroups"`
	Instructions     []string             `json:"instructions"`
	PrepSteps        []string             `json:"prepSteps"`
	CookingSteps     []string             `json:"cookingSteps"`
}

type recipesFile struct {
	Recipes []rawRecipe `json:"recipes"`
}

// LoadRecipes 讀取食譜資料檔
func LoadRecipes(path string) ([]common.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes file: %w", err)
	}
	return ParseRecipes(data)
}

// ParseRecipes 解析食譜資料，接受 {"recipes": [...]} 或陣列
func ParseRecipes(data []byte) ([]common.Recipe, error) {
	var raws []rawRecipe

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("failed to parse recipes data: %w", err)
		}
	} else {
		var file recipesFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse recipes data: %w", err)
		}
		raws = file.Recipes
	}

	recipes := make([]common.Recipe, 0, len(raws))
	for _, raw := range raws {
		recipes = append(recipes, transformRecipe(raw))
	}
	return recipes, nil
}

func transformRecipe(raw rawRecipe) common.Recipe {
	recipeID := rawID(raw.ID)
	difficulty, label := mapDifficulty(raw.Difficulty)
	cookTime, minutes := formatCookTime(raw.CookTime)

	recipe := common.Recipe{
		ID:              recipeID,
		Name:            raw.Name,
		Image:           raw.Image,
		Difficulty:      difficulty,
		DifficultyLabel: label,
		CookTime:        cookTime,
		CookTimeMinutes: minutes,
		Servings:        raw.Servings,
		Cuisine:         raw.Cuisine,
		Ingredients:     []common.RecipeIngredient{},
		Directions:      []string{},
	}

	switch {
	case raw.IngredientGroups != nil:
		index := 0
		for _, group := range raw.IngredientGroups {
			mapped := common.IngredientGroup{Title: group.Title, Ingredients: []common.RecipeIngredient{}}
			for _, ing := range group.Ingredients {
				mapped.Ingredients = append(mapped.Ingredients, mapIngredient(ing, recipeID, index))
				index++
			}
			recipe.IngredientGroups = append(recipe.IngredientGroups, mapped)
			recipe.Ingredients = append(recipe.Ingredients, mapped.Ingredients...)
		}
	case raw.Ingredients != nil:
		for i, ing := range raw.Ingredients {
			recipe.Ingredients = append(recipe.Ingredients, mapIngredient(ing, recipeID, i))
		}
	}

	switch {
	case raw.PrepSteps != nil || raw.CookingSteps != nil:
		recipe.PrepSteps = raw.PrepSteps
		recipe.CookingSteps = raw.CookingSteps
		recipe.Directions = append(recipe.Directions, raw.PrepSteps...)
		recipe.Directions = append(recipe.Directions, raw.CookingSteps...)
	case raw.Instructions != nil:
		recipe.Directions = raw.Instructions
	}

	return recipe
}

// rawID 食譜 id 可能是數字或字串
func rawID(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

// mapDifficulty easy/medium/hard 轉為 2/3/4，其餘為 3；保留原始標籤
func mapDifficulty(value string) (int, string) {
	if value == "" {
		return defaultDifficulty, ""
	}
	if level, ok := difficultyLevels[strings.ToLower(strings.TrimSpace(value))]; ok {
		return level, value
	}
	return defaultDifficulty, value
}

// formatCookTime 數字或以數字開頭的字串轉為 "<n> mins"，其他字串原樣保留
func formatCookTime(v json.RawMessage) (string, *int) {
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}

	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		minutes := int(n)
		return fmt.Sprintf("%s mins", strconv.FormatFloat(n, 'f', -1, 64)), &minutes
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return strings.TrimSpace(string(v)), nil
	}
	if m := leadingInt.FindStringSubmatch(s); m != nil {
		if minutes, err := strconv.Atoi(m[1]); err == nil {
			return fmt.Sprintf("%d mins", minutes), &minutes
		}
	}
	return s, nil
}

func mapIngredient(raw rawIngredient, recipeID string, index int) common.RecipeIngredient {
	parts := make([]string, 0, 2)
	for _, p := range []string{string(raw.Amount), string(raw.Unit)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return common.RecipeIngredient{
		ID:     fmt.Sprintf("%s-%d", recipeID, index+1),
		Name:   raw.Name,
		Amount: strings.TrimSpace(strings.Join(parts, " ")),
	}
}
