package feedback

import (
	"net/http"
	"time"

	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 使用者回饋類型
const (
	ThumbsUp            = "thumbs_up"
	ThumbsDown          = "thumbs_down"
	SelectedAlternative = "selected_alternative"
	ManualSearch        = "manual_search"
	Skipped             = "skipped"
)

// Feedback 使用者對比對結果的回饋
type Feedback struct {
	IngredientName      string     `json:"ingredientName" validate:"required"`
	RecipeID            string     `json:"recipeId"`
	RecipeName          string     `json:"recipeName"`
	BestMatchProductID  string     `json:"bestMatchProductId"`
	BestMatchConfidence int        `json:"bestMatchConfidence" validate:"gte=0,lte=100"`
	UserFeedback        string     `json:"userFeedback" validate:"required,oneof=thumbs_up thumbs_down selected_alternative manual_search skipped"`
	SelectedProductID   string     `json:"selectedProductId,omitempty" validate:"required_if=UserFeedback selected_alternative"`
	Timestamp           *time.Time `json:"timestamp,omitempty"`
}

// HandleFeedback 記錄使用者回饋，只寫入日誌
func HandleFeedback(c *gin.Context) {
	requestID := common.RequestID(c)

	var fb Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		common.WriteError(c, common.NewValidationError("Request body must be an object"))
		return
	}
	if err := match.Validator().Struct(&fb); err != nil {
		common.WriteError(c, common.NewValidationError("Invalid feedback: "+err.Error()))
		return
	}
	if fb.Timestamp == nil {
		now := time.Now().UTC()
		fb.Timestamp = &now
	}

	common.LogInfo("收到使用者回饋",
		zap.String("ingredient", fb.IngredientName),
		zap.String("recipe_id", fb.RecipeID),
		zap.String("recipe_name", fb.RecipeName),
		zap.String("best_match_product_id", fb.BestMatchProductID),
		zap.Int("best_match_confidence", fb.BestMatchConfidence),
		zap.String("feedback", fb.UserFeedback),
		zap.String("selected_product_id", fb.SelectedProductID),
		zap.Time("timestamp", *fb.Timestamp),
		zap.String("request_id", requestID),
	)

	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}
