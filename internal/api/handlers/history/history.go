package history

import (
	"errors"
	"fmt"
	"net/http"

	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SelectRequest 使用者改選商品
type SelectRequest struct {
	Product match.MatchedProduct `json:"product"`
}

// CartRequest 標記加入購物車
type CartRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

var errHistoryDisabled = common.NewServiceUnavailableError("Match history is disabled", nil)

// Handler 比對歷史處理器
type Handler struct {
	history *history.Manager
}

// NewHandler 創建比對歷史處理器；hist 為 nil 時所有請求返回 503
func NewHandler(hist *history.Manager) *Handler {
	return &Handler{history: hist}
}

// HandleStats 比對歷史統計
func (h *Handler) HandleStats(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}
	stats, err := h.history.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleGet 取得食材的比對歷史
func (h *Handler) HandleGet(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}
	entry, err := h.history.Lookup(c.Request.Context(), c.Param("ingredient"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// HandleSelect 改選其他商品
func (h *Handler) HandleSelect(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("Request body must be an object"))
		return
	}
	if err := match.Validator().Struct(&req.Product.Product); err != nil {
		common.WriteError(c, common.NewValidationError(`Product must include "id" and "name" fields`))
		return
	}
	if req.Product.ConfidenceLabel == "" {
		req.Product.ConfidenceLabel = match.ClassifyConfidence(req.Product.Confidence)
	}

	entry, err := h.history.SelectProduct(c.Request.Context(), c.Param("ingredient"), req.Product)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// HandleAddToCart 標記已加入購物車
func (h *Handler) HandleAddToCart(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}

	var req CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError("Request body must be an object"))
		return
	}
	if err := match.Validator().Struct(&req); err != nil {
		common.WriteError(c, common.NewValidationError("productId is required"))
		return
	}

	entry, err := h.history.MarkAddedToCart(c.Request.Context(), c.Param("ingredient"), req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// HandleClear 刪除單一食材的比對歷史
func (h *Handler) HandleClear(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}
	if err := h.history.Clear(c.Request.Context(), c.Param("ingredient")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleClearAll 清空比對歷史
func (h *Handler) HandleClearAll(c *gin.Context) {
	if h.history == nil {
		common.WriteError(c, errHistoryDisabled)
		return
	}
	if err := h.history.ClearAll(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	common.LogInfo("比對歷史已清空", zap.String("backend", h.history.Backend()))
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, history.ErrNotFound) {
		common.WriteError(c, common.ErrNotFound)
		return
	}
	common.LogError("比對歷史操作失敗", zap.Error(err), zap.String("path", c.Request.URL.Path))
	common.WriteError(c, common.ErrInternalError.Wrap(fmt.Errorf("match history: %w", err)))
}
