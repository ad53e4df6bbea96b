package catalog

import (
	"errors"
	"io/fs"

	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// Catalog 載入後的商品與食譜，建立後唯讀
type Catalog struct {
	products []common.Product
	recipes  []common.Recipe
	byID     map[string]int
	synonyms *match.SynonymTable
}

// New 以已載入的資料建立目錄
func New(products []common.Product, recipes []common.Recipe) *Catalog {
	if products == nil {
		products = []common.Product{}
	}
	if recipes == nil {
		recipes = []common.Recipe{}
	}
	c := &Catalog{
		products: products,
		recipes:  recipes,
		byID:     make(map[string]int, len(recipes)),
		synonyms: match.DefaultSynonyms(),
	}
	for i, r := range recipes {
		if _, exists := c.byID[r.ID]; !exists {
			c.byID[r.ID] = i
		}
	}
	return c
}

// Load 讀取設定中的資料檔；檔案不存在時該部分為空
func Load(cfg config.CatalogConfig) (*Catalog, error) {
	products, err := LoadProducts(cfg.ProductsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		common.LogWarn("商品資料檔不存在", zap.String("path", cfg.ProductsPath))
	}

	recipes, err := LoadRecipes(cfg.RecipesPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		common.LogWarn("食譜資料檔不存在", zap.String("path", cfg.RecipesPath))
	}

	common.LogInfo("商品目錄已載入",
		zap.Int("products", len(products)),
		zap.Int("recipes", len(recipes)),
	)
	return New(products, recipes), nil
}

// Products 所有商品
func (c *Catalog) Products() []common.Product {
	return c.products
}

// Recipes 所有食譜
func (c *Catalog) Recipes() []common.Recipe {
	return c.recipes
}

// Recipe 以 id 取得食譜
func (c *Catalog) Recipe(id string) (common.Recipe, bool) {
	i, ok := c.byID[id]
	if !ok {
		return common.Recipe{}, false
	}
	return c.recipes[i], true
}

// Search 在目錄中手動搜尋商品
func (c *Catalog) Search(query string, limit int) []SearchResult {
	return Search(c.products, query, c.synonyms, limit)
}
