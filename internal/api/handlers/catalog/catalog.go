package catalog

import (
	"net/http"
	"strconv"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler 商品與食譜目錄處理器
type Handler struct {
	catalog *catalog.Catalog
}

// NewHandler 創建目錄處理器
func NewHandler(cat *catalog.Catalog) *Handler {
	return &Handler{catalog: cat}
}

// HandleProducts 商品列表；帶 q 參數時為手動搜尋
func (h *Handler) HandleProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		products := h.catalog.Products()
		c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
		return
	}

	limit := catalog.DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			common.WriteError(c, common.NewValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	results := h.catalog.Search(query, limit)
	c.JSON(http.StatusOK, gin.H{"products": results, "total": len(results), "query": query})
}

// HandleRecipes 食譜列表
func (h *Handler) HandleRecipes(c *gin.Context) {
	recipes := h.catalog.Recipes()
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "total": len(recipes)})
}

// HandleRecipe 單一食譜
func (h *Handler) HandleRecipe(c *gin.Context) {
	recipe, ok := h.catalog.Recipe(c.Param("id"))
	if !ok {
		common.WriteError(c, common.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, recipe)
}
