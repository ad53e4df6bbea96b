package common

// Ingredient 比對請求中的食材
type Ingredient struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name" validate:"required"`
	Amount     string `json:"amount,omitempty"`
	Details    string `json:"details,omitempty"`
	RecipeName string `json:"recipeName,omitempty"`
}

// Product 商品目錄中的商品
// ingredientId 為舊版直接連結欄位，比對引擎不使用
type Product struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name,omitempty" validate:"required_without=ProductName"`
	ProductName  string   `json:"product_name,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Image        string   `json:"image,omitempty"`
	Category     string   `json:"category,omitempty"`
	IngredientID string   `json:"ingredientId,omitempty"`
}

// DisplayName 商品顯示名稱，name 為空時使用 product_name
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ProductName
}

// PriceValue 商品價格，未設定時為 0
func (p Product) PriceValue() float64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// Float64Ptr 返回 float64 指標
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr 返回 int 指標
func IntPtr(v int) *int {
	return &v
}

// RecipeIngredient 食譜中的食材
type RecipeIngredient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// IngredientGroup 食材分組
type IngredientGroup struct {
	Title       string             `json:"title"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// Recipe 食譜
type Recipe struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Difficulty       int                `json:"difficulty"`
	DifficultyLabel  string             `json:"difficultyLabel,omitempty"`
	CookTime         string             `json:"cookTime"`
	CookTimeMinutes  *int               `json:"cookTimeMinutes,omitempty"`
	Servings         int                `json:"servings"`
	Cuisine          string             `json:"cuisine,omitempty"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IngredientGroups []IngredientGroup  `json:"ingredientGroups,omitempty"`
	Directions       []string           `json:"directions"`
	PrepSteps        []string           `json:"prepSteps,omitempty"`
	CookingSteps     []string           `json:"cookingSteps,omitempty"`
}

// ToIngredient 將食譜食材轉為比對請求用的食材
func (ri RecipeIngredient) ToIngredient(recipeName string) Ingredient {
	return Ingredient{
		ID:         ri.ID,
		Name:       ri.Name,
		Amount:     ri.Amount,
		RecipeName: recipeName,
	}
}
