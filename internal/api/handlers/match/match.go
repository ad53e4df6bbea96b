package match

import (
	"net/http"
	"strconv"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/core/shopping"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipeMatchRequest 整份食譜比對請求，body 可省略
type RecipeMatchRequest struct {
	Options    *match.Options `json:"options,omitempty"`
	UseHistory bool           `json:"useHistory,omitempty"`
}

// Handler 食材比對處理器
type Handler struct {
	svc     *shopping.Service
	catalog *catalog.Catalog
	debug   bool
}

// NewHandler 創建比對處理器；debug 為 true 時響應包含模型原始輸出
func NewHandler(svc *shopping.Service, cat *catalog.Catalog, debug bool) *Handler {
	return &Handler{svc: svc, catalog: cat, debug: debug}
}

// HandleMatch 比對單一食材
func (h *Handler) HandleMatch(c *gin.Context) {
	requestID := common.RequestID(c)

	var req match.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, common.NewValidationError("Request body must be an object"))
		return
	}

	result, err := h.svc.MatchIngredient(c.Request.Context(), &req, queryBool(c, "history"))
	if err != nil {
		common.LogWarn("食材比對失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	if !h.debug {
		result.ModelResponse = nil
	}
	c.JSON(http.StatusOK, result)
}

// HandleRecipeMatch 以目錄中的商品比對整份食譜
func (h *Handler) HandleRecipeMatch(c *gin.Context) {
	requestID := common.RequestID(c)

	recipe, ok := h.catalog.Recipe(c.Param("id"))
	if !ok {
		common.WriteError(c, common.ErrNotFound)
		return
	}

	var req RecipeMatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
			common.WriteError(c, common.NewValidationError("Request body must be an object"))
			return
		}
	}
	useHistory := req.UseHistory || queryBool(c, "history")

	rm, err := h.svc.MatchRecipe(c.Request.Context(), recipe, h.catalog.Products(), req.Options, useHistory)
	if err != nil {
		common.LogWarn("食譜比對失敗",
			zap.Error(err),
			zap.String("recipe_id", recipe.ID),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	if !h.debug {
		for i := range rm.Results {
			if rm.Results[i].Result != nil {
				rm.Results[i].Result.ModelResponse = nil
			}
		}
	}
	c.JSON(http.StatusOK, rm)
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.DefaultQuery(key, "false"))
	return err == nil && v
}
