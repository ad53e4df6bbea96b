package shopping

import (
	"context"
	"errors"
	"time"

	"recipe-matcher/internal/core/history"
	"recipe-matcher/internal/core/match"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 食材比對狀態
const (
	StatusMatched = "matched"
	StatusNoMatch = "no_match"
	StatusError   = "error"
)

// IngredientOutcome 整份食譜比對中單一食材的結果
type IngredientOutcome struct {
	Ingredient common.Ingredient  `json:"ingredient"`
	Status     string             `json:"status"`
	Result     *match.MatchResult `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
	Code       string             `json:"code,omitempty"`
}

// RecipeMatch 整份食譜的比對結果
type RecipeMatch struct {
	RecipeID   string              `json:"recipeId"`
	RecipeName string              `json:"recipeName"`
	Results    []IngredientOutcome `json:"results"`
	Matched    int                 `json:"matched"`
	NoMatch    int                 `json:"noMatch"`
	Failed     int                 `json:"failed"`
}

// Service 比對流程的呼叫端：比對歷史與整份食譜的並行比對
type Service struct {
	engine  *match.Engine
	history *history.Manager
	workers int
	timeout time.Duration
}

// NewService 創建服務；hist 為 nil 表示停用比對歷史
func NewService(engine *match.Engine, hist *history.Manager, cfg config.MatchConfig) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		engine:  engine,
		history: hist,
		workers: workers,
		timeout: cfg.RequestTimeout,
	}
}

// Engine 比對引擎
func (s *Service) Engine() *match.Engine {
	return s.engine
}

// History 比對歷史，停用時為 nil
func (s *Service) History() *history.Manager {
	return s.history
}

// MatchIngredient 比對單一食材；useHistory 時先查詢歷史，比對成功後寫入歷史
// 歷史讀寫失敗只記錄日誌，不影響比對
func (s *Service) MatchIngredient(ctx context.Context, req *match.Request, useHistory bool) (*match.MatchResult, error) {
	if err := match.ValidateRequest(req); err != nil {
		return nil, err
	}

	if useHistory && s.history != nil {
		entry, err := s.history.Lookup(ctx, req.Ingredient.Name)
		switch {
		case err == nil:
			return ResultFromEntry(*req.Ingredient, entry), nil
		case !errors.Is(err, history.ErrNotFound):
			common.LogWarn("比對歷史讀取失敗", zap.String("ingredient", req.Ingredient.Name), zap.Error(err))
		}
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.engine.Match(callCtx, req)
	if err != nil {
		return nil, err
	}

	if s.history != nil && result.BestMatch != nil {
		if _, err := s.history.Save(ctx, req.Ingredient.Name, *result.BestMatch, result.Alternatives); err != nil {
			common.LogWarn("比對歷史寫入失敗", zap.String("ingredient", req.Ingredient.Name), zap.Error(err))
		}
	}
	return result, nil
}

// MatchRecipe 以有限的並行數比對食譜中每一個食材，結果依食材順序排列
// 單一食材失敗不影響其他食材；context 取消時中止整個比對
func (s *Service) MatchRecipe(ctx context.Context, recipe common.Recipe, products []common.Product, opts *match.Options, useHistory bool) (*RecipeMatch, error) {
	if len(products) == 0 {
		return nil, common.NewValidationError("Products array is required and must not be empty")
	}
	if !s.engine.Configured() {
		return nil, common.NewServiceUnavailableError(
			"Matching service unavailable. Model API key is not configured.", nil)
	}

	outcomes := make([]IngredientOutcome, len(recipe.Ingredients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, ri := range recipe.Ingredients {
		i, ingredient := i, ri.ToIngredient(recipe.Name)
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req := &match.Request{Ingredient: &ingredient, Products: products, Options: opts}
			result, err := s.MatchIngredient(gctx, req, useHistory)
			outcomes[i] = outcomeOf(ingredient, result, err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rm := &RecipeMatch{RecipeID: recipe.ID, RecipeName: recipe.Name, Results: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case StatusMatched:
			rm.Matched++
		case StatusNoMatch:
			rm.NoMatch++
		default:
			rm.Failed++
		}
	}

	common.LogInfo("食譜比對完成",
		zap.String("recipe_id", recipe.ID),
		zap.Int("ingredients", len(outcomes)),
		zap.Int("matched", rm.Matched),
		zap.Int("no_match", rm.NoMatch),
		zap.Int("failed", rm.Failed),
	)
	return rm, nil
}

func outcomeOf(ingredient common.Ingredient, result *match.MatchResult, err error) IngredientOutcome {
	o := IngredientOutcome{Ingredient: ingredient}
	switch {
	case err == nil && result.BestMatch != nil:
		o.Status = StatusMatched
		o.Result = result
	case err == nil:
		o.Status = StatusNoMatch
		o.Result = result
	case errors.Is(err, common.ErrNoCandidates):
		o.Status = StatusNoMatch
		_, o.Code = common.HTTPStatusOf(err)
		o.Error = err.Error()
	default:
		o.Status = StatusError
		_, o.Code = common.HTTPStatusOf(err)
		o.Error = err.Error()
	}
	return o
}

// ResultFromEntry 以比對歷史重建比對結果
func ResultFromEntry(ingredient common.Ingredient, entry *history.Entry) *match.MatchResult {
	best := &match.MatchedProduct{
		Product: common.Product{
			ID:    entry.ProductID,
			Name:  entry.ProductName,
			Price: entry.ProductPrice,
			Image: entry.ProductImage,
		},
		Confidence:      entry.Confidence,
		ConfidenceLabel: entry.ConfidenceLabel,
		Reasoning:       entry.Reasoning,
	}

	alternatives := make([]match.MatchedProduct, 0, len(entry.Alternatives))
	for _, alt := range entry.Alternatives {
		if alt.ProductID == entry.ProductID || alt.Confidence < match.MinAlternativeConfidence {
			continue
		}
		alternatives = append(alternatives, match.MatchedProduct{
			Product:         common.Product{ID: alt.ProductID, Name: alt.ProductName},
			Confidence:      alt.Confidence,
			ConfidenceLabel: match.ClassifyConfidence(alt.Confidence),
		})
	}

	return &match.MatchResult{
		Ingredient:     ingredient,
		BestMatch:      best,
		Alternatives:   alternatives,
		CandidateCount: 0,
		FromCache:      true,
	}
}
